package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawItem is a line item exactly as a caller or a spreadsheet supplied it.
// Numeric fields are untyped because forms and sheets send numbers,
// numeric strings, blanks or garbage; the tax calculator coerces them.
// RawItem deliberately has no derived fields, so a client cannot smuggle
// its own sales value or total into a stored invoice.
type RawItem struct {
	HSCode             string `json:"hsCode,omitempty"`
	ProductDescription string `json:"productDescription,omitempty"`
	UoM                string `json:"uoM,omitempty"`
	SaleType           string `json:"saleType,omitempty"`
	SroScheduleNo      string `json:"sroScheduleNo,omitempty"`
	SroItemSerialNo    string `json:"sroItemSerialNo,omitempty"`
	Rate               string `json:"rate,omitempty"`

	Quantity          any `json:"quantity,omitempty"`
	UnitPrice         any `json:"unitPrice,omitempty"`
	SalesTax          any `json:"salesTax,omitempty"`
	ExtraTax          any `json:"extraTax,omitempty"`
	FurtherTax        any `json:"furtherTax,omitempty"`
	FederalExciseDuty any `json:"federalExciseDuty,omitempty"`
	T236G             any `json:"t236g,omitempty"`
	T236H             any `json:"t236h,omitempty"`
	Discount          any `json:"discount,omitempty"`
	OtherDiscount     any `json:"otherDiscount,omitempty"`
	SalesTaxWithheld  any `json:"salesTaxWithheld,omitempty"`
	TradeDiscount     any `json:"tradeDiscount,omitempty"`
}

// InvoiceItem is a computed line item embedded in an Invoice.  SalesValue
// and TotalItemValue are always derived by the tax calculator.  RatePercent
// is the numeric reading of a "17%" style Rate and is informational only.
type InvoiceItem struct {
	HSCode             string `json:"hsCode,omitempty"`
	ProductDescription string `json:"productDescription,omitempty"`
	UoM                string `json:"uoM,omitempty"`
	SaleType           string `json:"saleType,omitempty"`
	SroScheduleNo      string `json:"sroScheduleNo,omitempty"`
	SroItemSerialNo    string `json:"sroItemSerialNo,omitempty"`
	Rate               string `json:"rate,omitempty"`

	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	SalesTax          decimal.Decimal `json:"salesTax"`
	ExtraTax          decimal.Decimal `json:"extraTax"`
	FurtherTax        decimal.Decimal `json:"furtherTax"`
	FederalExciseDuty decimal.Decimal `json:"federalExciseDuty"`
	T236G             decimal.Decimal `json:"t236g"`
	T236H             decimal.Decimal `json:"t236h"`
	Discount          decimal.Decimal `json:"discount"`
	OtherDiscount     decimal.Decimal `json:"otherDiscount"`
	SalesTaxWithheld  decimal.Decimal `json:"salesTaxWithheld"`
	TradeDiscount     decimal.Decimal `json:"tradeDiscount"`

	RatePercent    decimal.Decimal `json:"ratePercent"`
	SalesValue     decimal.Decimal `json:"salesValue"`
	TotalItemValue decimal.Decimal `json:"totalItemValue"`
}

// InvoiceHeader carries the invoice level fields shared by every item.
type InvoiceHeader struct {
	InvoiceNumber string    `json:"invoice_number"`
	InvoiceDate   time.Time `json:"invoice_date"`
	InvoiceType   string    `json:"invoice_type"`
	InvoiceRefNo  string    `json:"invoice_ref_no,omitempty"`
	Salesman      string    `json:"salesman,omitempty"`
}

// Invoice belongs to exactly one entity and references one buyer of that
// same entity.  Once Sent is true the invoice is frozen: updates and
// deletes are refused.
//
// Fields:
//  ID          – UUID primary key.
//  EntityID    – owning tenant.
//  BuyerID     – buyer of the same tenant.
//  Items       – ordered, embedded line items.
//  TotalAmount – sum of the items' TotalItemValue.
//  Sent        – one-way flag set by the submission collaborator.
//  SentAt      – when Sent was set.
type Invoice struct {
	ID       string `json:"id"`
	EntityID string `json:"entity_id"`
	BuyerID  string `json:"buyer_id"`
	InvoiceHeader
	Items       []InvoiceItem   `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Sent        bool            `json:"sent"`
	SentAt      *time.Time      `json:"sent_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
