// Package taxcalc derives the server side values of an invoice line item.
// Every numeric input is untrusted: anything that does not read as a
// number counts as zero, so Compute never fails.
package taxcalc

import (
	"encoding/json"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/invoicing-portal/internal/model"
)

// Num coerces an untrusted value into a decimal.  nil, blanks, NaN,
// infinities and anything non-numeric become zero.
func Num(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero
		}
		return *x
	case string:
		return parse(x)
	case json.Number:
		return parse(string(x))
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	case int:
		return decimal.NewFromInt(int64(x))
	case int8:
		return decimal.NewFromInt(int64(x))
	case int16:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return fromUint(uint64(x))
	case uint16:
		return fromUint(uint64(x))
	case uint32:
		return fromUint(uint64(x))
	case uint64:
		return fromUint(x)
	case bool:
		if x {
			return decimal.NewFromInt(1)
		}
		return decimal.Zero
	}
	return decimal.Zero
}

func parse(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func fromUint(u uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0)
}

// ParseRatePercent reads a rate such as "17%" as 17.  Text that does not
// end in a percent sign yields zero.
func ParseRatePercent(rate string) decimal.Decimal {
	r := strings.TrimSpace(rate)
	if !strings.HasSuffix(r, "%") {
		return decimal.Zero
	}
	return parse(strings.TrimSuffix(r, "%"))
}

// Compute turns a raw item into a stored item.  The sales value is
// quantity times unit price; the item total adds every tax and duty and
// subtracts every discount and withholding.  No rounding is applied.
func Compute(raw model.RawItem) model.InvoiceItem {
	it := model.InvoiceItem{
		HSCode:             raw.HSCode,
		ProductDescription: raw.ProductDescription,
		UoM:                raw.UoM,
		SaleType:           raw.SaleType,
		SroScheduleNo:      raw.SroScheduleNo,
		SroItemSerialNo:    raw.SroItemSerialNo,
		Rate:               raw.Rate,

		Quantity:          Num(raw.Quantity),
		UnitPrice:         Num(raw.UnitPrice),
		SalesTax:          Num(raw.SalesTax),
		ExtraTax:          Num(raw.ExtraTax),
		FurtherTax:        Num(raw.FurtherTax),
		FederalExciseDuty: Num(raw.FederalExciseDuty),
		T236G:             Num(raw.T236G),
		T236H:             Num(raw.T236H),
		Discount:          Num(raw.Discount),
		OtherDiscount:     Num(raw.OtherDiscount),
		SalesTaxWithheld:  Num(raw.SalesTaxWithheld),
		TradeDiscount:     Num(raw.TradeDiscount),
	}
	it.RatePercent = ParseRatePercent(raw.Rate)
	it.SalesValue = it.Quantity.Mul(it.UnitPrice)
	it.TotalItemValue = it.SalesValue.
		Add(it.SalesTax).
		Add(it.ExtraTax).
		Add(it.FurtherTax).
		Add(it.FederalExciseDuty).
		Add(it.T236G).
		Add(it.T236H).
		Sub(it.Discount).
		Sub(it.OtherDiscount).
		Sub(it.SalesTaxWithheld).
		Sub(it.TradeDiscount)
	return it
}

// ComputeAll computes every raw item in order.
func ComputeAll(raw []model.RawItem) []model.InvoiceItem {
	items := make([]model.InvoiceItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, Compute(r))
	}
	return items
}

// Total sums the item totals.
func Total(items []model.InvoiceItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.TotalItemValue)
	}
	return sum
}
