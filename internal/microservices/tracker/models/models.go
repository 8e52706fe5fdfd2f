package models

import (
	"time"

	"restaurant-checkout/internal/domain"
	dto "restaurant-checkout/internal/microservices/checkout/domain/dto"

	"github.com/shopspring/decimal"
)

type PaymentSummary struct {
	Method        string          `json:"method"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	PaymentType   *string         `json:"payment_type,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
}

type OrderDetail struct {
	dto.OrderView
	UpdatedAt time.Time       `json:"updated_at"`
	Payment   *PaymentSummary `json:"payment,omitempty"`
}

type Timeline struct {
	OrderNumber string                       `json:"order_number"`
	Limit       int                          `json:"limit"`
	Offset      int                          `json:"offset"`
	Events      []domain.PaymentNotification `json:"events"`
}
