package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/repository"
)

// BuyerInput describes a new buyer.
type BuyerInput struct {
	BuyerName        string
	RegistrationType string
	Province         string
	NTN              string
	CNIC             string
	STRN             string
	FullAddress      string
}

// BuyerPatch carries the fields of a partial update; nil means unchanged.
type BuyerPatch struct {
	BuyerName        *string
	RegistrationType *string
	Province         *string
	NTN              *string
	CNIC             *string
	STRN             *string
	FullAddress      *string
}

// BuyerFilter narrows List.  Zero values match everything.
type BuyerFilter struct {
	BuyerName        string // case insensitive substring
	NTN              string // case insensitive substring
	CNIC             string // case insensitive substring
	RegistrationType string
	Province         string
	Status           string // "Active" or "Inactive"
	Created          CreatedRange
	Page             int
	Limit            int
}

func (f BuyerFilter) matches(b model.Buyer) bool {
	if !containsFold(b.BuyerName, f.BuyerName) || !containsFold(b.NTN, f.NTN) || !containsFold(b.CNIC, f.CNIC) {
		return false
	}
	if f.RegistrationType != "" && f.RegistrationType != b.RegistrationType {
		return false
	}
	if f.Province != "" && f.Province != b.Province {
		return false
	}
	return statusMatches(f.Status, b.Active) && f.Created.Contains(b.CreatedAt)
}

// BuyerPage is one page of a tenant's buyers.  Stats count the tenant's
// active buyers regardless of the filter.
type BuyerPage struct {
	Data  []model.Buyer `json:"data"`
	Meta  PageMeta      `json:"meta"`
	Stats ListStats     `json:"stats"`
}

// BuyerService manages the buyers of the resolved tenant.  Every call is
// scoped by the tenant passed in; a buyer of another entity behaves as if
// it did not exist.
type BuyerService struct {
	store repository.Store
	now   clock
}

func NewBuyerService(store repository.Store) *BuyerService {
	return &BuyerService{store: store, now: utcNow}
}

func checkBuyer(b *model.Buyer) error {
	if strings.TrimSpace(b.BuyerName) == "" {
		return apperr.Validation("buyer name is required")
	}
	if strings.TrimSpace(b.FullAddress) == "" {
		return apperr.Validation("full address is required")
	}
	return checkParty(b.RegistrationType, b.Province)
}

// Create adds an active buyer to tenant.
func (s *BuyerService) Create(ctx context.Context, tenant *model.Entity, in BuyerInput) (*model.Buyer, error) {
	now := s.now()
	b := &model.Buyer{
		ID:               uuid.NewString(),
		EntityID:         tenant.ID,
		BuyerName:        strings.TrimSpace(in.BuyerName),
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
	if err := checkBuyer(b); err != nil {
		return nil, err
	}
	if err := s.store.Buyers().Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create buyer: %w", err)
	}
	return b, nil
}

// Get returns one buyer of tenant, active or not.
func (s *BuyerService) Get(ctx context.Context, tenant *model.Entity, id string) (*model.Buyer, error) {
	b, err := s.store.Buyers().GetForEntity(ctx, tenant.ID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrBuyerNotFound.WithMessage("Buyer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load buyer: %w", err)
	}
	return b, nil
}

// Update applies a partial update.
func (s *BuyerService) Update(ctx context.Context, tenant *model.Entity, id string, p BuyerPatch) (*model.Buyer, error) {
	b, err := s.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&b.BuyerName, p.BuyerName)
	set(&b.RegistrationType, p.RegistrationType)
	set(&b.Province, p.Province)
	set(&b.NTN, p.NTN)
	set(&b.CNIC, p.CNIC)
	set(&b.STRN, p.STRN)
	set(&b.FullAddress, p.FullAddress)
	b.BuyerName = strings.TrimSpace(b.BuyerName)
	if err := checkBuyer(b); err != nil {
		return nil, err
	}
	return b, s.save(ctx, b)
}

// ToggleStatus flips a buyer between active and inactive.  Existing
// invoices keep referencing an inactive buyer; new ones cannot.
func (s *BuyerService) ToggleStatus(ctx context.Context, tenant *model.Entity, id string) (*model.Buyer, error) {
	b, err := s.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	b.Active = !b.Active
	return b, s.save(ctx, b)
}

func (s *BuyerService) save(ctx context.Context, b *model.Buyer) error {
	b.UpdatedAt = s.now()
	err := s.store.Buyers().Update(ctx, b)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.ErrBuyerNotFound.WithMessage("Buyer not found")
	}
	if err != nil {
		return fmt.Errorf("update buyer: %w", err)
	}
	return nil
}

// List filters and pages tenant's buyers, newest first.
func (s *BuyerService) List(ctx context.Context, tenant *model.Entity, f BuyerFilter) (*BuyerPage, error) {
	all, err := s.store.Buyers().ListByEntity(ctx, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("list buyers: %w", err)
	}
	page := &BuyerPage{}
	var stats statsCounter
	matched := make([]model.Buyer, 0, len(all))
	for _, b := range all {
		stats.add(b.Active, b.Province)
		if f.matches(b) {
			matched = append(matched, b)
		}
	}
	page.Stats = stats.result()
	page.Data, page.Meta = paginate(matched, f.Page, f.Limit)
	return page, nil
}

// ListActive returns every active buyer of tenant, newest first.  This is
// what invoice forms offer for selection.
func (s *BuyerService) ListActive(ctx context.Context, tenant *model.Entity) ([]model.Buyer, error) {
	all, err := s.store.Buyers().ListByEntity(ctx, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("list buyers: %w", err)
	}
	out := make([]model.Buyer, 0, len(all))
	for _, b := range all {
		if b.Active {
			out = append(out, b)
		}
	}
	return out, nil
}
