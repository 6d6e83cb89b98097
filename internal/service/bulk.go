package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	applog "github.com/iliyamo/invoicing-portal/internal/log"
	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/queue"
	"github.com/iliyamo/invoicing-portal/internal/repository"
	"github.com/iliyamo/invoicing-portal/internal/sheet"
	"github.com/iliyamo/invoicing-portal/internal/taxcalc"
)

// Import column names.  They are matched case sensitively against the
// header row of the uploaded sheet.
const (
	colInvoiceNo             = "invoiceNo"
	colInvoiceDate           = "invoiceDate"
	colInvoiceType           = "invoiceType"
	colInvoiceRefNo          = "invoiceRefNo"
	colSalesman              = "salesman"
	colBuyerName             = "buyerName"
	colBuyerRegistrationType = "buyerRegistrationType"
	colBuyerProvince         = "buyerProvince"
	colBuyerNTN              = "buyerNTN"
	colBuyerCNIC             = "buyerCNIC"
	colBuyerSTRN             = "buyerSTRN"
	colBuyerAddress          = "buyerAddress"
)

// excelEpochDays is the serial day number of 1970-01-01 in the 1900 date
// system spreadsheets use.
const excelEpochDays = 25569

// dateLayouts are tried in order for textual invoice dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// BulkReconciler turns flat spreadsheet rows into invoices.  Rows sharing
// an invoice number form one invoice; the first row of a group supplies
// the header and the buyer.
type BulkReconciler struct {
	store  repository.Store
	events queue.Publisher
	now    clock
}

func NewBulkReconciler(store repository.Store, events queue.Publisher) *BulkReconciler {
	return &BulkReconciler{store: store, events: events, now: utcNow}
}

type rowGroup struct {
	key  string
	rows []sheet.Row
	line int // sheet line of the header row
	date time.Time
}

// Reconcile imports rows for tenant and returns the created invoice ids in
// order of first appearance.  The import is all or nothing: any failure
// discards every buyer and invoice it created.
func (r *BulkReconciler) Reconcile(ctx context.Context, tenant *model.Entity, rows []sheet.Row) ([]string, error) {
	if len(rows) == 0 {
		return nil, apperr.ErrEmptyImport
	}
	now := r.now()
	groups, err := groupRows(rows, now)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(groups))
	err = r.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		created := map[string]*model.Buyer{}
		for _, g := range groups {
			buyer, err := resolveBuyer(ctx, tx.Buyers(), tenant, g, created, now)
			if err != nil {
				return err
			}
			raw := make([]model.RawItem, 0, len(g.rows))
			for _, row := range g.rows {
				raw = append(raw, rawItemFromRow(row))
			}
			items := taxcalc.ComputeAll(raw)
			head := g.rows[0]
			inv := &model.Invoice{
				ID:       uuid.NewString(),
				EntityID: tenant.ID,
				BuyerID:  buyer.ID,
				InvoiceHeader: model.InvoiceHeader{
					InvoiceNumber: g.key,
					InvoiceDate:   g.date,
					InvoiceType:   head.String(colInvoiceType),
					InvoiceRefNo:  head.String(colInvoiceRefNo),
					Salesman:      head.String(colSalesman),
				},
				Items:       items,
				TotalAmount: taxcalc.Total(items),
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Invoices().Create(ctx, inv); err != nil {
				return fmt.Errorf("create invoice %q: %w", g.key, err)
			}
			ids = append(ids, inv.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	applog.GetLogger(ctx).WithFields(logrus.Fields{"rows": len(rows), "invoices": len(ids)}).Info("bulk import committed")
	notify(ctx, r.events, queue.Event{Type: queue.InvoicesImported, EntityID: tenant.ID, InvoiceIDs: ids, OccurredAt: now})
	return ids, nil
}

// groupRows groups by invoice number in order of first appearance and
// validates everything that can be checked before touching the store.
// All problems are reported together.
func groupRows(rows []sheet.Row, now time.Time) ([]*rowGroup, error) {
	var (
		merr   *multierror.Error
		groups []*rowGroup
		byKey  = map[string]*rowGroup{}
	)
	for i, row := range rows {
		line := i + 2 // line 1 is the header
		key := row.String(colInvoiceNo)
		if key == "" {
			merr = multierror.Append(merr, fmt.Errorf("row %d: %s is required", line, colInvoiceNo))
			continue
		}
		g, ok := byKey[key]
		if !ok {
			g = &rowGroup{key: key, line: line}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, row)
	}
	for _, g := range groups {
		head := g.rows[0]
		if head.String(colBuyerName) == "" {
			merr = multierror.Append(merr, fmt.Errorf("row %d: %s is required", g.line, colBuyerName))
		}
		d, err := ParseInvoiceDate(head[colInvoiceDate], now)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("row %d: %w", g.line, err))
		}
		g.date = d
	}
	if merr != nil {
		merr.ErrorFormat = joinErrors
		return nil, apperr.Validation(merr.Error())
	}
	return groups, nil
}

func joinErrors(es []error) string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// resolveBuyer finds the group's buyer by exact name among the tenant's
// active buyers, reusing buyers created earlier in the same import, and
// creates it from the header row when it does not exist yet.
func resolveBuyer(ctx context.Context, buyers repository.BuyerStore, tenant *model.Entity, g *rowGroup, created map[string]*model.Buyer, now time.Time) (*model.Buyer, error) {
	head := g.rows[0]
	name := head.String(colBuyerName)
	if b, ok := created[name]; ok {
		return b, nil
	}
	b, err := buyers.FindActiveByName(ctx, tenant.ID, name)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find buyer %q: %w", name, err)
	}

	b = &model.Buyer{
		ID:               uuid.NewString(),
		EntityID:         tenant.ID,
		BuyerName:        name,
		RegistrationType: head.String(colBuyerRegistrationType),
		Province:         strings.ToUpper(head.String(colBuyerProvince)),
		NTN:              head.String(colBuyerNTN),
		CNIC:             head.String(colBuyerCNIC),
		STRN:             head.String(colBuyerSTRN),
		FullAddress:      head.String(colBuyerAddress),
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if !model.ValidRegistrationType(b.RegistrationType) {
		return nil, apperr.Validation(fmt.Sprintf("row %d: new buyer %q needs a valid %s", g.line, name, colBuyerRegistrationType))
	}
	if !model.ValidProvince(b.Province) {
		return nil, apperr.Validation(fmt.Sprintf("row %d: new buyer %q needs a valid %s", g.line, name, colBuyerProvince))
	}
	if err := buyers.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create buyer %q: %w", name, err)
	}
	created[name] = b
	return b, nil
}

func rawItemFromRow(row sheet.Row) model.RawItem {
	return model.RawItem{
		HSCode:             row.String("hsCode"),
		ProductDescription: row.String("productDescription"),
		UoM:                row.String("uoM"),
		SaleType:           row.String("saleType"),
		SroScheduleNo:      row.String("sroScheduleNo"),
		SroItemSerialNo:    row.String("sroItemSerialNo"),
		Rate:               row.String("rate"),
		Quantity:           row["quantity"],
		UnitPrice:          row["unitPrice"],
		SalesTax:           row["salesTax"],
		ExtraTax:           row["extraTax"],
		FurtherTax:         row["furtherTax"],
		FederalExciseDuty:  row["federalExciseDuty"],
		T236G:              row["t236g"],
		T236H:              row["t236h"],
		Discount:           row["discount"],
		OtherDiscount:      row["otherDiscount"],
		SalesTaxWithheld:   row["salesTaxWithheld"],
		TradeDiscount:      row["tradeDiscount"],
	}
}

// ParseInvoiceDate reads an invoice date cell.  A time passes through; a
// number, or text that reads as one, is a spreadsheet serial day and is
// converted to a UTC instant; other text must match one of the accepted
// calendar layouts.  An absent cell means now.
func ParseInvoiceDate(v any, now time.Time) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return now, nil
	case time.Time:
		return x, nil
	case *time.Time:
		if x == nil {
			return now, nil
		}
		return *x, nil
	case float64:
		return fromSerial(x)
	case float32:
		return fromSerial(float64(x))
	case int:
		return fromSerial(float64(x))
	case int64:
		return fromSerial(float64(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return now, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromSerial(f)
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid %s %q", colInvoiceDate, s)
	}
	return time.Time{}, fmt.Errorf("invalid %s %v", colInvoiceDate, v)
}

func fromSerial(days float64) (time.Time, error) {
	if math.IsNaN(days) || math.IsInf(days, 0) {
		return time.Time{}, fmt.Errorf("invalid %s %v", colInvoiceDate, days)
	}
	ms := math.Round((days - excelEpochDays) * 86400000)
	return time.UnixMilli(int64(ms)).UTC(), nil
}
