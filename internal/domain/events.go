package domain

import "time"

const (
	EventOrderCreated      = "order.created"
	EventOrderCancelled    = "order.cancelled"
	EventPaymentSettlement = "payment.settlement"
	EventPaymentPending    = "payment.pending"
	EventPaymentFailed     = "payment.failed"
	EventPaymentRefund     = "payment.refund"
)

// Event is the envelope written to the outbox and published to the notifications exchange.
type Event struct {
	EventID     string         `json:"event_id"`
	Type        string         `json:"type"`
	OrderNumber string         `json:"order_number"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// PaymentEventType names the event emitted for an effective payment transition.
func PaymentEventType(plan Plan) string {
	switch {
	case plan.ConfirmOrder:
		return EventPaymentSettlement
	case plan.CancelOrder:
		return EventPaymentFailed
	case plan.Status == PaymentRefund:
		return EventPaymentRefund
	default:
		return EventPaymentPending
	}
}
