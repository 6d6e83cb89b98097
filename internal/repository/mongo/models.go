package mongo

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/taxcalc"
)

type accountModel struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	Settings     string    `bson:"settings,omitempty"` // JSON text; free-form nesting survives intact
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toAccountModel(a *model.Account) (*accountModel, error) {
	m := &accountModel{
		ID:           a.ID,
		Name:         a.Name,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		Role:         a.Role,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if a.Settings != nil {
		raw, err := json.Marshal(a.Settings)
		if err != nil {
			return nil, err
		}
		m.Settings = string(raw)
	}
	return m, nil
}

func fromAccountModel(m *accountModel) (*model.Account, error) {
	a := &model.Account{
		ID:           m.ID,
		Name:         m.Name,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.Settings != "" {
		if err := json.Unmarshal([]byte(m.Settings), &a.Settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	}
	return a, nil
}

type sessionModel struct {
	ID          string     `bson:"_id"`
	AccountID   string     `bson:"account_id"`
	TokenHash   string     `bson:"token_hash"`
	IPAddress   string     `bson:"ip_address"`
	UserAgent   string     `bson:"user_agent"`
	LoggedInAt  time.Time  `bson:"logged_in_at"`
	LoggedOutAt *time.Time `bson:"logged_out_at,omitempty"`
	ExpiresAt   time.Time  `bson:"expires_at"`
	Active      bool       `bson:"active"`
}

func toSessionModel(s *model.Session) *sessionModel {
	return &sessionModel{
		ID:          s.ID,
		AccountID:   s.AccountID,
		TokenHash:   s.TokenHash,
		IPAddress:   s.IPAddress,
		UserAgent:   s.UserAgent,
		LoggedInAt:  s.LoggedInAt,
		LoggedOutAt: s.LoggedOutAt,
		ExpiresAt:   s.ExpiresAt,
		Active:      s.Active,
	}
}

func fromSessionModel(m *sessionModel) *model.Session {
	return &model.Session{
		ID:          m.ID,
		AccountID:   m.AccountID,
		TokenHash:   m.TokenHash,
		IPAddress:   m.IPAddress,
		UserAgent:   m.UserAgent,
		LoggedInAt:  m.LoggedInAt.UTC(),
		LoggedOutAt: m.LoggedOutAt,
		ExpiresAt:   m.ExpiresAt.UTC(),
		Active:      m.Active,
	}
}

type entityModel struct {
	ID               string    `bson:"_id"`
	AccountID        string    `bson:"account_id"`
	Image            string    `bson:"image,omitempty"`
	BusinessName     string    `bson:"business_name"`
	RegistrationType string    `bson:"registration_type"`
	Province         string    `bson:"province"`
	NTN              string    `bson:"ntn,omitempty"`
	CNIC             string    `bson:"cnic,omitempty"`
	STRN             string    `bson:"strn,omitempty"`
	FullAddress      string    `bson:"full_address"`
	Active           bool      `bson:"active"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func toEntityModel(e *model.Entity) *entityModel {
	m := entityModel(*e)
	return &m
}

func fromEntityModel(m *entityModel) *model.Entity {
	e := model.Entity(*m)
	return &e
}

type buyerModel struct {
	ID               string    `bson:"_id"`
	EntityID         string    `bson:"entity_id"`
	BuyerName        string    `bson:"buyer_name"`
	RegistrationType string    `bson:"registration_type"`
	Province         string    `bson:"province"`
	NTN              string    `bson:"ntn,omitempty"`
	CNIC             string    `bson:"cnic,omitempty"`
	STRN             string    `bson:"strn,omitempty"`
	FullAddress      string    `bson:"full_address"`
	Active           bool      `bson:"active"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func toBuyerModel(b *model.Buyer) *buyerModel {
	m := buyerModel(*b)
	return &m
}

func fromBuyerModel(m *buyerModel) *model.Buyer {
	b := model.Buyer(*m)
	return &b
}

// invoiceModel embeds the items as JSON text: decimal.Decimal has no BSON
// codec and the items are only ever read back whole.
type invoiceModel struct {
	ID            string          `bson:"_id"`
	EntityID      string          `bson:"entity_id"`
	BuyerID       string          `bson:"buyer_id"`
	InvoiceNumber string          `bson:"invoice_number"`
	InvoiceDate   time.Time       `bson:"invoice_date"`
	InvoiceType   string          `bson:"invoice_type"`
	InvoiceRefNo  string          `bson:"invoice_ref_no,omitempty"`
	Salesman      string          `bson:"salesman,omitempty"`
	Items         string          `bson:"items"`
	TotalAmount   bson.Decimal128 `bson:"total_amount"`
	Sent          bool            `bson:"sent"`
	SentAt        *time.Time      `bson:"sent_at,omitempty"`
	CreatedAt     time.Time       `bson:"created_at"`
	UpdatedAt     time.Time       `bson:"updated_at"`
}

func toInvoiceModel(inv *model.Invoice) (*invoiceModel, error) {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return nil, err
	}
	total, err := bson.ParseDecimal128(inv.TotalAmount.String())
	if err != nil {
		return nil, fmt.Errorf("encode total %s: %w", inv.TotalAmount, err)
	}
	return &invoiceModel{
		ID:            inv.ID,
		EntityID:      inv.EntityID,
		BuyerID:       inv.BuyerID,
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceDate:   inv.InvoiceDate,
		InvoiceType:   inv.InvoiceType,
		InvoiceRefNo:  inv.InvoiceRefNo,
		Salesman:      inv.Salesman,
		Items:         string(items),
		TotalAmount:   total,
		Sent:          inv.Sent,
		SentAt:        inv.SentAt,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}, nil
}

func fromInvoiceModel(m *invoiceModel) (*model.Invoice, error) {
	inv := &model.Invoice{
		ID:       m.ID,
		EntityID: m.EntityID,
		BuyerID:  m.BuyerID,
		InvoiceHeader: model.InvoiceHeader{
			InvoiceNumber: m.InvoiceNumber,
			InvoiceDate:   m.InvoiceDate.UTC(),
			InvoiceType:   m.InvoiceType,
			InvoiceRefNo:  m.InvoiceRefNo,
			Salesman:      m.Salesman,
		},
		Sent:      m.Sent,
		SentAt:    m.SentAt,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(m.Items), &inv.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	// Decimal128 caps significant digits; the items are exact.
	inv.TotalAmount = taxcalc.Total(inv.Items)
	return inv, nil
}
