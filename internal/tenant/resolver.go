// Package tenant decides which entity a request acts on.  A client is
// always bound to the entity it owns; an admin names the entity in the
// X-Entity-Id header and may only pick entities it has been granted.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	"github.com/iliyamo/invoicing-portal/internal/auth"
	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/repository"
)

// SelectorHeader carries the entity an admin acts on.
const SelectorHeader = "X-Entity-Id"

// Resolver maps an identity and an optional selector to the entity the
// request is scoped to.
type Resolver interface {
	Resolve(ctx context.Context, id *auth.Identity, selector string) (*model.Entity, error)
}

// SelfOwned resolves a client to its own entity.  The selector is ignored,
// so a client can never reach another tenant.
type SelfOwned struct {
	Entities repository.EntityStore
}

func (r SelfOwned) Resolve(ctx context.Context, id *auth.Identity, _ string) (*model.Entity, error) {
	e, err := r.Entities.GetByAccountID(ctx, id.Account.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrNoEntityForAccount
	}
	if err != nil {
		return nil, fmt.Errorf("load entity: %w", err)
	}
	return e, nil
}

// Selected resolves an admin to the entity named by the selector.
type Selected struct {
	Entities repository.EntityStore
	Grants   Grants
}

func (r Selected) Resolve(ctx context.Context, id *auth.Identity, selector string) (*model.Entity, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, apperr.ErrTenantNotSelected
	}
	e, err := r.Entities.GetByID(ctx, selector)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load entity: %w", err)
	}
	grants := r.Grants
	if grants == nil {
		grants = AllowAll{}
	}
	if !grants.Allowed(id.Account.ID, e.ID) {
		return nil, apperr.ErrTenantForbidden
	}
	return e, nil
}

// Dispatcher picks the strategy by the caller's role.
type Dispatcher struct {
	byRole map[string]Resolver
}

// NewDispatcher wires the client and admin strategies over one entity store.
func NewDispatcher(entities repository.EntityStore, grants Grants) *Dispatcher {
	return &Dispatcher{byRole: map[string]Resolver{
		model.RoleClient: SelfOwned{Entities: entities},
		model.RoleAdmin:  Selected{Entities: entities, Grants: grants},
	}}
}

func (d *Dispatcher) Resolve(ctx context.Context, id *auth.Identity, selector string) (*model.Entity, error) {
	r, ok := d.byRole[id.Role()]
	if !ok {
		return nil, apperr.ErrForbiddenRole
	}
	return r.Resolve(ctx, id, selector)
}
