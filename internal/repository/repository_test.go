package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/taxcalc"
)

// stubRow hands back fixed column values in Scan order.
type stubRow []any

func (r stubRow) Scan(dest ...any) error {
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r[i]))
	}
	return nil
}

func TestScanInvoiceKeepsItemPrecision(t *testing.T) {
	items := taxcalc.ComputeAll([]model.RawItem{
		{Quantity: "0.333333333", UnitPrice: 3},
		{Quantity: 1, UnitPrice: "0.000000000000000001"},
	})
	raw, err := json.Marshal(items)
	require.NoError(t, err)
	now := time.Now().UTC()

	// The DECIMAL column has already rounded the stored total.
	row := stubRow{
		"inv-1", "ent-1", "buy-1", "INV-1", now, "Sale Invoice", "", "",
		raw, decimal.RequireFromString("1.00000000"),
		false, sql.NullTime{}, now, now,
	}
	inv, err := scanInvoice(row)
	require.NoError(t, err)
	assert.Equal(t, "0.999999999000000001", inv.TotalAmount.String())
	require.Len(t, inv.Items, 2)
	assert.Equal(t, "0.999999999", inv.Items[0].TotalItemValue.String())
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'acme' for key 'username'"}))
	assert.True(t, isDuplicate(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, isDuplicate(&mysql.MySQLError{Number: 1452}))
	// A message that merely mentions the number is not a duplicate.
	assert.False(t, isDuplicate(errors.New("row 1062 not found")))
	assert.False(t, isDuplicate(nil))
}
