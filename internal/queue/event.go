// Package queue defines the domain events exchanged over the message
// broker together with the RabbitMQ publisher and consumer.
package queue

import "time"

// EventsQueue is the durable queue every domain event is routed to.
const EventsQueue = "invoicing.events"

// Event types.
const (
	InvoiceCreated   = "invoice.created"
	InvoiceUpdated   = "invoice.updated"
	InvoiceDeleted   = "invoice.deleted"
	InvoiceSent      = "invoice.sent"
	InvoicesImported = "invoice.bulk_imported"
	EntityCreated    = "entity.created"
	EntityToggled    = "entity.status_changed"
)

// Event is published after a write has been committed.  It carries enough
// for downstream consumers to log, notify or trigger analytics without
// querying the primary store.
type Event struct {
	Type          string    `json:"type"`
	EntityID      string    `json:"entity_id"`
	ActorID       string    `json:"actor_id,omitempty"`
	InvoiceID     string    `json:"invoice_id,omitempty"`
	InvoiceIDs    []string  `json:"invoice_ids,omitempty"`
	InvoiceNumber string    `json:"invoice_number,omitempty"`
	TotalAmount   string    `json:"total_amount,omitempty"`
	Active        *bool     `json:"active,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
