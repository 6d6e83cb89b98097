package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Consumer drains the events queue into an append-only audit log file.
type Consumer struct {
	URL    string
	LogDir string
}

// Run connects, consumes and reconnects with exponential backoff until
// ctx is cancelled.  Malformed messages are rejected without requeue so
// they cannot spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
	log := logrus.WithField("component", "events-consumer")
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			wait := bo.NextBackOff()
			log.WithError(err).Warnf("dial failed; retrying in %s", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("consume loop ended; reconnecting")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logrus.WithError(err).Warn("events-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(EventsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(EventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				logrus.WithError(err).Warn("events-consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// handleMessage appends one line per event to <LogDir>/invoicing.log.
func (c *Consumer) handleMessage(body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	dir := c.LogDir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "invoicing.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(ev Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | entity_id=%s", ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.EntityID)
	if ev.ActorID != "" {
		fmt.Fprintf(&b, " | actor_id=%s", ev.ActorID)
	}
	if ev.InvoiceID != "" {
		fmt.Fprintf(&b, " | invoice_id=%s", ev.InvoiceID)
	}
	if ev.InvoiceNumber != "" {
		fmt.Fprintf(&b, " | invoice_no=%q", ev.InvoiceNumber)
	}
	if ev.TotalAmount != "" {
		fmt.Fprintf(&b, " | total=%s", ev.TotalAmount)
	}
	if len(ev.InvoiceIDs) > 0 {
		fmt.Fprintf(&b, " | invoices=[%s]", strings.Join(ev.InvoiceIDs, ","))
	}
	if ev.Active != nil {
		fmt.Fprintf(&b, " | active=%t", *ev.Active)
	}
	b.WriteByte('\n')
	return b.String()
}
