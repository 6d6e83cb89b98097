package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/queue"
	"github.com/iliyamo/invoicing-portal/internal/repository/memory"
)

type recorder struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func newMemStore(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.New()
	require.NoError(t, err)
	return s
}

func newTenant(t *testing.T, s *memory.Store, name string) *model.Entity {
	t.Helper()
	svc := NewEntityService(s, nil, bcrypt.MinCost)
	e, _, err := svc.Create(context.Background(), CreateEntityInput{
		Username:         name + "-" + uuid.NewString()[:8],
		Password:         "pw",
		BusinessName:     name,
		RegistrationType: model.RegistrationRegistered,
		Province:         model.ProvincePunjab,
		FullAddress:      "1 Mall Road",
	})
	require.NoError(t, err)
	return e
}

func newBuyer(t *testing.T, s *memory.Store, tenant *model.Entity, name string) *model.Buyer {
	t.Helper()
	b, err := NewBuyerService(s).Create(context.Background(), tenant, BuyerInput{
		BuyerName:        name,
		RegistrationType: model.RegistrationUnregistered,
		Province:         model.ProvinceSindh,
		FullAddress:      "Karachi",
	})
	require.NoError(t, err)
	return b
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixedClock(t time.Time) clock { return func() time.Time { return t } }
