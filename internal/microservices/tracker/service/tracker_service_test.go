package service

import (
	"context"
	"errors"
	"testing"

	"restaurant-checkout/internal/domain"

	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	order    *domain.Order
	payment  *domain.Payment
	events   []domain.PaymentNotification
	gotLimit int
	gotOff   int
}

func (f *fakeRepo) GetOrder(_ context.Context, number string) (domain.Order, *domain.Payment, error) {
	if f.order == nil || f.order.Number != number {
		return domain.Order{}, nil, domain.NotFound("order", number)
	}
	return *f.order, f.payment, nil
}

func (f *fakeRepo) GetPaymentTimeline(_ context.Context, _ string, limit, offset int) ([]domain.PaymentNotification, error) {
	f.gotLimit, f.gotOff = limit, offset
	return f.events, nil
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		Number:        "ORD-20240101-000001",
		TableCode:     "T1",
		TotalAmount:   decimal.RequireFromString("55000"),
		Status:        domain.OrderConfirmed,
		PaymentStatus: domain.Paid,
		PaymentMethod: domain.MethodOnline,
		Lines: []domain.OrderLine{{
			MenuItemID: 1, Name: "Nasi Goreng", Quantity: 2,
			UnitPrice: decimal.RequireFromString("25000"), Subtotal: decimal.RequireFromString("55000"),
			Modifiers: []domain.LineModifier{{ModifierID: 3, Name: "Extra egg", Quantity: 1, UnitPrice: decimal.RequireFromString("5000")}},
		}},
	}
}

func TestGetOrder(t *testing.T) {
	txn := "RST-ORD-20240101-000001-1700000000"
	repo := &fakeRepo{
		order:   sampleOrder(),
		payment: &domain.Payment{Method: domain.MethodOnline, Status: domain.PaymentSettlement, Amount: decimal.RequireFromString("55000"), TransactionID: &txn},
	}
	svc := NewTrackerService(repo)

	got, err := svc.GetOrder(context.Background(), "ORD-20240101-000001")
	if err != nil {
		t.Fatal(err)
	}
	if got.Payment == nil || got.Payment.Status != "settlement" || *got.Payment.TransactionID != txn {
		t.Errorf("payment = %+v", got.Payment)
	}
	if len(got.Lines) != 1 || len(got.Lines[0].Modifiers) != 1 {
		t.Errorf("lines = %+v", got.Lines)
	}

	_, err = svc.GetOrder(context.Background(), "ORD-19990101-000001")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing order err = %v", err)
	}
}

func TestGetPaymentTimelinePaging(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		offset    int
		wantLimit int
		wantErr   error
	}{
		{"default", 0, 0, defaultLimit, nil},
		{"explicit", 10, 5, 10, nil},
		{"capped", 10000, 0, maxLimit, nil},
		{"negative offset", 10, -1, 0, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{order: sampleOrder(), events: []domain.PaymentNotification{{Source: domain.SourceWebhook, Outcome: domain.OutcomeApplied}}}
			tl, err := NewTrackerService(repo).GetPaymentTimeline(context.Background(), "ORD-20240101-000001", tt.limit, tt.offset)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if repo.gotLimit != tt.wantLimit || tl.Limit != tt.wantLimit || repo.gotOff != tt.offset {
				t.Errorf("limit/offset = %d/%d, want %d/%d", repo.gotLimit, repo.gotOff, tt.wantLimit, tt.offset)
			}
			if len(tl.Events) != 1 {
				t.Errorf("events = %d", len(tl.Events))
			}
		})
	}
}

func TestGetPaymentTimelineUnknownOrder(t *testing.T) {
	_, err := NewTrackerService(&fakeRepo{}).GetPaymentTimeline(context.Background(), "ORD-X", 0, 0)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}
