package model

import "time"

// Buyer is a counterparty of one entity.  Buyers are never shared between
// entities and an invoice may only reference a buyer of its own entity.
// Inactive buyers stay visible but cannot be attached to new invoices.
type Buyer struct {
	ID               string    `json:"id"`
	EntityID         string    `json:"entity_id"`
	BuyerName        string    `json:"buyer_name"`
	RegistrationType string    `json:"registration_type"`
	Province         string    `json:"province"`
	NTN              string    `json:"ntn,omitempty"`
	CNIC             string    `json:"cnic,omitempty"`
	STRN             string    `json:"strn,omitempty"`
	FullAddress      string    `json:"full_address"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
