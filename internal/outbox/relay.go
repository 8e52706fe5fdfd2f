package outbox

import (
	"context"
	"time"

	"restaurant-checkout/internal/common/logger"
	"restaurant-checkout/internal/common/metrics"
)

type Publisher interface {
	Publish(ctx context.Context, exchange, key, messageID string, body []byte) error
}

// Relay moves unsent outbox rows to the broker. Delivery is at least once:
// a crash between publish and MarkSent republishes the event.
type Relay struct {
	store    Store
	pub      Publisher
	log      *logger.Logger
	metrics  *metrics.Metrics
	batch    int
	interval time.Duration
}

func NewRelay(store Store, pub Publisher, log *logger.Logger, m *metrics.Metrics, batch int, interval time.Duration) *Relay {
	return &Relay{store: store, pub: pub, log: log, metrics: m, batch: batch, interval: interval}
}

func (r *Relay) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
			r.log.Error("outbox_fetch_failed", err, nil)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// RelayOnce publishes one batch in id order and returns how many were sent.
// It stops at the first publish failure so later events never overtake it.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	recs, err := r.store.FetchPending(ctx, r.batch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, rec := range recs {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := r.pub.Publish(pctx, rec.Topic, rec.Key, rec.EventID, rec.Payload)
		cancel()
		if err != nil {
			r.metrics.OutboxPublished.WithLabelValues("error").Inc()
			r.log.Error("outbox_publish_failed", err, map[string]any{"event_id": rec.EventID, "attempts": rec.Attempts + 1})
			if merr := r.store.MarkFailed(ctx, rec.ID); merr != nil {
				r.log.Error("outbox_mark_failed", merr, map[string]any{"event_id": rec.EventID})
			}
			return sent, nil
		}
		if err := r.store.MarkSent(ctx, rec.ID); err != nil {
			return sent, err
		}
		r.metrics.OutboxPublished.WithLabelValues("ok").Inc()
		r.log.Debug("outbox_published", map[string]any{"event_id": rec.EventID, "type": rec.Key})
		sent++
	}
	return sent, nil
}
