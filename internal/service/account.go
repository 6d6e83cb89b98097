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
	"github.com/iliyamo/invoicing-portal/internal/utils"
)

// AccountService covers the account level operations that are not tied to
// a tenant: UI settings and operator bootstrap.
type AccountService struct {
	store      repository.Store
	bcryptCost int
	now        clock
}

func NewAccountService(store repository.Store, bcryptCost int) *AccountService {
	return &AccountService{store: store, bcryptCost: bcryptCost, now: utcNow}
}

// Settings returns the account's settings document, never nil.
func (s *AccountService) Settings(ctx context.Context, accountID string) (map[string]any, error) {
	a, err := s.store.Accounts().GetByID(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrAccountMissing
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if a.Settings == nil {
		return map[string]any{"configs": map[string]any{}}, nil
	}
	return a.Settings, nil
}

// UpdateConfigs replaces the "configs" object of the settings document
// and keeps any other top level keys.
func (s *AccountService) UpdateConfigs(ctx context.Context, accountID string, configs map[string]any) (map[string]any, error) {
	if configs == nil {
		return nil, apperr.Validation("configs must be an object")
	}
	cur, err := s.Settings(ctx, accountID)
	if err != nil {
		return nil, err
	}
	next := make(map[string]any, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	next["configs"] = configs
	if err := s.store.Accounts().UpdateSettings(ctx, accountID, next, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrAccountMissing
		}
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return next, nil
}

// CreateOperator creates an admin account.  When password is empty a
// random one is generated and returned.
func (s *AccountService) CreateOperator(ctx context.Context, username, name, password string) (*model.Account, string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, "", apperr.Validation("username is required")
	}
	if password == "" {
		p, err := utils.GeneratePassword()
		if err != nil {
			return nil, "", fmt.Errorf("generate password: %w", err)
		}
		password = p
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	if name == "" {
		name = username
	}
	now := s.now()
	a := &model.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Accounts().Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", apperr.ErrUsernameTaken
		}
		return nil, "", fmt.Errorf("create operator: %w", err)
	}
	return a, password, nil
}
