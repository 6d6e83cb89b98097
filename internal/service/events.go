// Package service holds the portal's use cases.  Every tenant scoped
// operation takes the entity resolved for the request as an argument;
// nothing here reads a tenant id from caller input.
package service

import (
	"context"
	"time"

	applog "github.com/iliyamo/invoicing-portal/internal/log"
	"github.com/iliyamo/invoicing-portal/internal/queue"
)

// clock is overridable in tests.
type clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// notify publishes ev after a committed write.  Publishing is best effort:
// a broker outage is logged and never fails the request.
func notify(ctx context.Context, pub queue.Publisher, ev queue.Event) {
	if pub == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = utcNow()
	}
	if err := pub.Publish(ctx, ev); err != nil {
		applog.GetLogger(ctx).WithError(err).WithField("event", ev.Type).Warn("event publish failed")
	}
}
