package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	applog "github.com/iliyamo/invoicing-portal/internal/log"
	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/queue"
	"github.com/iliyamo/invoicing-portal/internal/repository"
	"github.com/iliyamo/invoicing-portal/internal/utils"
)

// CreateEntityInput registers a tenant together with its client login.
type CreateEntityInput struct {
	Username         string
	Password         string
	Image            string
	BusinessName     string
	RegistrationType string
	Province         string
	NTN              string
	CNIC             string
	STRN             string
	FullAddress      string
}

// EntityPatch carries the fields of a partial update; nil means unchanged.
type EntityPatch struct {
	Image            *string
	BusinessName     *string
	RegistrationType *string
	Province         *string
	NTN              *string
	CNIC             *string
	STRN             *string
	FullAddress      *string
}

// EntityFilter narrows List.  Zero values match everything.
type EntityFilter struct {
	BusinessName     string // case insensitive substring
	RegistrationType string
	Province         string
	NTN              string
	CNIC             string
	STRN             string
	Status           string // "Active" or "Inactive"
	Created          CreatedRange
	Page             int
	Limit            int
}

// EntityPage is one page of entities plus platform wide counters.
type EntityPage struct {
	Data  []model.Entity `json:"data"`
	Meta  PageMeta       `json:"meta"`
	Stats ListStats      `json:"stats"`
}

// EntityService is the operator side of tenant management.
type EntityService struct {
	store      repository.Store
	events     queue.Publisher
	bcryptCost int
	now        clock
}

func NewEntityService(store repository.Store, events queue.Publisher, bcryptCost int) *EntityService {
	return &EntityService{store: store, events: events, bcryptCost: bcryptCost, now: utcNow}
}

func checkParty(registrationType, province string) error {
	if !model.ValidRegistrationType(registrationType) {
		return apperr.Validation(fmt.Sprintf("invalid registration type %q", registrationType))
	}
	if !model.ValidProvince(province) {
		return apperr.Validation(fmt.Sprintf("invalid province %q", province))
	}
	return nil
}

// Create stores the client account and its entity atomically.
func (s *EntityService) Create(ctx context.Context, in CreateEntityInput) (*model.Entity, *model.Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, nil, apperr.Validation("username and password are required")
	}
	if strings.TrimSpace(in.BusinessName) == "" || strings.TrimSpace(in.FullAddress) == "" {
		return nil, nil, apperr.Validation("business name and full address are required")
	}
	if err := checkParty(in.RegistrationType, in.Province); err != nil {
		return nil, nil, err
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	acct := &model.Account{
		ID:           uuid.NewString(),
		Name:         in.BusinessName,
		Username:     in.Username,
		PasswordHash: hash,
		Role:         model.RoleClient,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	e := &model.Entity{
		ID:               uuid.NewString(),
		AccountID:        acct.ID,
		Image:            in.Image,
		BusinessName:     in.BusinessName,
		RegistrationType: in.RegistrationType,
		Province:         in.Province,
		NTN:              in.NTN,
		CNIC:             in.CNIC,
		STRN:             in.STRN,
		FullAddress:      in.FullAddress,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Entities().CreateWithAccount(ctx, e, acct); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, apperr.ErrUsernameTaken
		}
		return nil, nil, fmt.Errorf("create entity: %w", err)
	}
	applog.GetLogger(ctx).WithField("entity_id", e.ID).Info("entity created")
	notify(ctx, s.events, queue.Event{Type: queue.EntityCreated, EntityID: e.ID, OccurredAt: now})
	return e, acct, nil
}

// Get returns one entity.
func (s *EntityService) Get(ctx context.Context, id string) (*model.Entity, error) {
	e, err := s.store.Entities().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load entity: %w", err)
	}
	return e, nil
}

// Update applies a partial update to the descriptive fields.
func (s *EntityService) Update(ctx context.Context, id string, p EntityPatch) (*model.Entity, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&e.Image, p.Image)
	set(&e.BusinessName, p.BusinessName)
	set(&e.RegistrationType, p.RegistrationType)
	set(&e.Province, p.Province)
	set(&e.NTN, p.NTN)
	set(&e.CNIC, p.CNIC)
	set(&e.STRN, p.STRN)
	set(&e.FullAddress, p.FullAddress)
	if err := checkParty(e.RegistrationType, e.Province); err != nil {
		return nil, err
	}
	if strings.TrimSpace(e.BusinessName) == "" {
		return nil, apperr.Validation("business name is required")
	}
	e.UpdatedAt = s.now()
	if err := s.store.Entities().Update(ctx, e); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrEntityNotFound
		}
		return nil, fmt.Errorf("update entity: %w", err)
	}
	return e, nil
}

// ToggleStatus flips the entity between active and inactive.  Turning it
// off ends every live session of its account in the same step.
func (s *EntityService) ToggleStatus(ctx context.Context, id string) (*model.Entity, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	active := !e.Active
	if err := s.store.Entities().SetActive(ctx, id, active, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrEntityNotFound
		}
		return nil, fmt.Errorf("set entity status: %w", err)
	}
	e.Active = active
	e.UpdatedAt = now
	applog.GetLogger(ctx).WithField("entity_id", id).Infof("entity active=%t", active)
	notify(ctx, s.events, queue.Event{Type: queue.EntityToggled, EntityID: id, Active: &active, OccurredAt: now})
	return e, nil
}

// ResetPassword stores a new password for the entity's client account.
func (s *EntityService) ResetPassword(ctx context.Context, id, password string) error {
	if password == "" {
		return apperr.Validation("Password is required")
	}
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.store.Accounts().UpdatePassword(ctx, e.AccountID, hash, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.ErrEntityNotFound.WithMessage("Entity or user not found")
	}
	return err
}

// List filters and pages the entities, newest first.
func (s *EntityService) List(ctx context.Context, f EntityFilter) (*EntityPage, error) {
	all, err := s.store.Entities().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	page := &EntityPage{}
	var stats statsCounter
	matched := make([]model.Entity, 0, len(all))
	for _, e := range all {
		stats.add(e.Active, e.Province)
		if f.matches(e) {
			matched = append(matched, e)
		}
	}
	page.Stats = stats.result()
	page.Data, page.Meta = paginate(matched, f.Page, f.Limit)
	return page, nil
}

func (f EntityFilter) matches(e model.Entity) bool {
	if !containsFold(e.BusinessName, f.BusinessName) {
		return false
	}
	eq := func(want, got string) bool { return want == "" || want == got }
	if !eq(f.RegistrationType, e.RegistrationType) || !eq(f.Province, e.Province) {
		return false
	}
	if !eq(f.NTN, e.NTN) || !eq(f.CNIC, e.CNIC) || !eq(f.STRN, e.STRN) {
		return false
	}
	return statusMatches(f.Status, e.Active) && f.Created.Contains(e.CreatedAt)
}
