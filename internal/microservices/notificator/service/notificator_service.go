package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"restaurant-checkout/internal/common/logger"
	"restaurant-checkout/internal/common/metrics"
	"restaurant-checkout/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

const seenCapacity = 4096

var errMalformed = errors.New("malformed event")

// NotificatorService consumes order and payment events and announces them.
// The relay delivers at least once, so repeated event ids are acked and skipped.
type NotificatorService struct {
	log     *logger.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	seen map[string]struct{}
	ring []string
	next int
}

func NewNotificatorService(log *logger.Logger, m *metrics.Metrics) *NotificatorService {
	return &NotificatorService{
		log:     log,
		metrics: m,
		seen:    make(map[string]struct{}, seenCapacity),
		ring:    make([]string, seenCapacity),
	}
}

// Notify drains deliveries with at most workers handlers in flight and
// returns once ctx is done or the channel closes.
func (ns *NotificatorService) Notify(ctx context.Context, deliveries <-chan amqp.Delivery, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for {
		select {
		case <-gctx.Done():
			return g.Wait()
		case d, ok := <-deliveries:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				ns.Handle(d)
				return nil
			})
		}
	}
}

// Handle processes one delivery. Malformed bodies are rejected without
// requeue so they land in the dead-letter queue.
func (ns *NotificatorService) Handle(d amqp.Delivery) {
	ev, err := decode(d.Body)
	if err != nil {
		ns.metrics.EventsConsumed.WithLabelValues("unknown", "malformed").Inc()
		ns.log.Warn("event_rejected", map[string]any{"message_id": d.MessageId, "reason": err.Error()})
		if nerr := d.Nack(false, false); nerr != nil {
			ns.log.Error("event_nack_failed", nerr, map[string]any{"message_id": d.MessageId})
		}
		return
	}

	if ns.markSeen(ev.EventID) {
		ns.log.Info("notification_sent", map[string]any{
			"event_id":     ev.EventID,
			"type":         ev.Type,
			"order_number": ev.OrderNumber,
			"occurred_at":  ev.OccurredAt,
			"message":      Message(ev),
		})
		ns.metrics.EventsConsumed.WithLabelValues(ev.Type, "ok").Inc()
	} else {
		ns.log.Debug("event_duplicate", map[string]any{"event_id": ev.EventID, "type": ev.Type})
		ns.metrics.EventsConsumed.WithLabelValues(ev.Type, "duplicate").Inc()
	}

	if err := d.Ack(false); err != nil {
		ns.log.Error("event_ack_failed", err, map[string]any{"event_id": ev.EventID})
	}
}

func decode(body []byte) (domain.Event, error) {
	var ev domain.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, errors.Join(errMalformed, err)
	}
	if ev.EventID == "" || ev.Type == "" || ev.OrderNumber == "" {
		return ev, errMalformed
	}
	return ev, nil
}

// markSeen reports whether id is new. Memory is bounded to the most recent ids.
func (ns *NotificatorService) markSeen(id string) bool {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if _, ok := ns.seen[id]; ok {
		return false
	}
	if old := ns.ring[ns.next]; old != "" {
		delete(ns.seen, old)
	}
	ns.ring[ns.next] = id
	ns.next = (ns.next + 1) % len(ns.ring)
	ns.seen[id] = struct{}{}
	return true
}

// Message renders the customer-facing text for an event.
func Message(ev domain.Event) string {
	switch ev.Type {
	case domain.EventOrderCreated:
		return "Order " + ev.OrderNumber + " received"
	case domain.EventOrderCancelled:
		return "Order " + ev.OrderNumber + " cancelled, payment could not be started"
	case domain.EventPaymentSettlement:
		return "Payment for order " + ev.OrderNumber + " confirmed"
	case domain.EventPaymentPending:
		return "Payment for order " + ev.OrderNumber + " is being processed"
	case domain.EventPaymentFailed:
		return "Payment for order " + ev.OrderNumber + " failed, order cancelled"
	case domain.EventPaymentRefund:
		return "Payment for order " + ev.OrderNumber + " refunded"
	default:
		return "Order " + ev.OrderNumber + " updated (" + ev.Type + ")"
	}
}
