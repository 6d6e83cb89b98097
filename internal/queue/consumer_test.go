package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageAppendsLine(t *testing.T) {
	dir := t.TempDir()
	c := &Consumer{LogDir: dir}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	body, err := json.Marshal(Event{Type: InvoiceCreated, EntityID: "e1", InvoiceID: "i1", InvoiceNumber: "INV-1", TotalAmount: "1120", OccurredAt: at})
	require.NoError(t, err)
	require.NoError(t, c.handleMessage(body))

	active := false
	body, err = json.Marshal(Event{Type: EntityToggled, EntityID: "e1", Active: &active, OccurredAt: at})
	require.NoError(t, err)
	require.NoError(t, c.handleMessage(body))

	raw, err := os.ReadFile(filepath.Join(dir, "invoicing.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `[2024-05-01T12:00:00Z] invoice.created | entity_id=e1 | invoice_id=i1 | invoice_no="INV-1" | total=1120`, lines[0])
	assert.Contains(t, lines[1], "active=false")
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	c := &Consumer{LogDir: t.TempDir()}
	require.Error(t, c.handleMessage([]byte("{")))
	require.Error(t, c.handleMessage([]byte(`{"entity_id":"e1"}`)))
}
