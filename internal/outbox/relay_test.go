package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"restaurant-checkout/internal/common/logger"
	"restaurant-checkout/internal/common/metrics"
	"restaurant-checkout/internal/domain"
)

type memStore struct {
	recs   []Record
	sent   map[int64]bool
	failed map[int64]int
}

func newMemStore(recs ...Record) *memStore {
	return &memStore{recs: recs, sent: map[int64]bool{}, failed: map[int64]int{}}
}

func (m *memStore) FetchPending(_ context.Context, limit int) ([]Record, error) {
	var out []Record
	for _, r := range m.recs {
		if !m.sent[r.ID] && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) MarkSent(_ context.Context, id int64) error { m.sent[id] = true; return nil }

func (m *memStore) MarkFailed(_ context.Context, id int64) error { m.failed[id]++; return nil }

type fakePublisher struct {
	keys   []string
	failOn string
}

func (p *fakePublisher) Publish(_ context.Context, exchange, key, _ string, _ []byte) error {
	if exchange != Topic {
		return errors.New("wrong exchange")
	}
	if key == p.failOn {
		return errors.New("broker down")
	}
	p.keys = append(p.keys, key)
	return nil
}

func record(id int64, key string) Record {
	return Record{ID: id, EventID: "e", Topic: Topic, Key: key, Payload: json.RawMessage(`{}`)}
}

func newRelay(store Store, pub Publisher) *Relay {
	return NewRelay(store, pub, logger.NewWithWriter("test", io.Discard), metrics.New("test"), 10, time.Second)
}

func TestRelayOncePublishesInOrder(t *testing.T) {
	store := newMemStore(record(1, domain.EventOrderCreated), record(2, domain.EventPaymentSettlement))
	pub := &fakePublisher{}

	n, err := newRelay(store, pub).RelayOnce(context.Background())
	if err != nil {
		t.Fatalf("RelayOnce: %v", err)
	}
	if n != 2 || !store.sent[1] || !store.sent[2] {
		t.Fatalf("sent %d, marks %v", n, store.sent)
	}
	if pub.keys[0] != domain.EventOrderCreated || pub.keys[1] != domain.EventPaymentSettlement {
		t.Errorf("order = %v", pub.keys)
	}
}

func TestRelayOnceStopsAtFailure(t *testing.T) {
	store := newMemStore(
		record(1, domain.EventOrderCreated),
		record(2, domain.EventPaymentFailed),
		record(3, domain.EventPaymentRefund),
	)
	pub := &fakePublisher{failOn: domain.EventPaymentFailed}

	n, err := newRelay(store, pub).RelayOnce(context.Background())
	if err != nil {
		t.Fatalf("RelayOnce: %v", err)
	}
	if n != 1 {
		t.Errorf("sent = %d, want 1", n)
	}
	if store.sent[2] || store.sent[3] {
		t.Errorf("events after the failure were marked sent: %v", store.sent)
	}
	if store.failed[2] != 1 {
		t.Errorf("attempts for failed event = %d", store.failed[2])
	}
}

func TestNewEvent(t *testing.T) {
	a := NewEvent(domain.EventOrderCreated, "ORD-20240101-000001", nil)
	b := NewEvent(domain.EventOrderCreated, "ORD-20240101-000001", nil)
	if a.EventID == "" || a.EventID == b.EventID {
		t.Errorf("event ids %q %q", a.EventID, b.EventID)
	}
}
