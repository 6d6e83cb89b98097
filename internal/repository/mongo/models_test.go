package mongo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/invoicing-portal/internal/model"
)

func TestInvoiceModelKeepsDecimalPrecision(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	inv := &model.Invoice{
		ID:            "inv-1",
		EntityID:      "ent-1",
		BuyerID:       "buy-1",
		InvoiceHeader: model.InvoiceHeader{InvoiceNumber: "A-1", InvoiceDate: now, InvoiceType: "Sale Invoice"},
		Items: []model.InvoiceItem{{
			HSCode:         "0101.2100",
			Quantity:       decimal.RequireFromString("3"),
			UnitPrice:      decimal.RequireFromString("333.33333333"),
			TotalItemValue: decimal.RequireFromString("999.99999999"),
		}},
		TotalAmount: decimal.RequireFromString("999.99999999"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m, err := toInvoiceModel(inv)
	require.NoError(t, err)
	raw, err := bson.Marshal(m)
	require.NoError(t, err)

	var decoded invoiceModel
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	got, err := fromInvoiceModel(&decoded)
	require.NoError(t, err)

	assert.True(t, got.TotalAmount.Equal(inv.TotalAmount), "total %s", got.TotalAmount)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].UnitPrice.Equal(inv.Items[0].UnitPrice))
	assert.Equal(t, "A-1", got.InvoiceNumber)
	assert.Nil(t, got.SentAt)
}

func TestAccountSettingsSurviveNesting(t *testing.T) {
	a := &model.Account{
		ID:       "acc-1",
		Username: "acme",
		Settings: map[string]any{"configs": map[string]any{"printer": map[string]any{"copies": float64(2)}}},
	}
	m, err := toAccountModel(a)
	require.NoError(t, err)

	got, err := fromAccountModel(m)
	require.NoError(t, err)
	configs, ok := got.Settings["configs"].(map[string]any)
	require.True(t, ok)
	printer, ok := configs["printer"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), printer["copies"])
}

func TestSessionIndexIsPartialOnActive(t *testing.T) {
	var found bool
	for _, idx := range migrationIndexes()[colSessions] {
		keys, ok := idx.Keys.(bson.D)
		require.True(t, ok)
		if len(keys) == 1 && keys[0].Key == "account_id" {
			found = true
		}
	}
	assert.True(t, found, "sessions must carry the one_live_session index")
}
