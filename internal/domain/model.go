package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCooking   OrderStatus = "cooking"
	OrderReady     OrderStatus = "ready"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type PaymentState string

const (
	Unpaid PaymentState = "unpaid"
	Paid   PaymentState = "paid"
)

type PaymentMethod string

const (
	MethodOnline PaymentMethod = "online"
	MethodCash   PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodOnline || m == MethodCash
}

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
)

// Table is a catalog entity. Only its occupancy flag is written by this service.
type Table struct {
	ID     int64
	Code   string
	Name   string
	Status TableStatus
}

type MenuItem struct {
	ID          int64
	Name        string
	Price       decimal.Decimal
	IsAvailable bool
}

type Modifier struct {
	ID          int64
	MenuItemID  *int64 // nil when the modifier can be attached to any item
	Name        string
	Price       decimal.Decimal
	IsAvailable bool
}

// Order carries price snapshots taken at checkout. TotalAmount is never recomputed.
type Order struct {
	ID            int64
	Number        string
	TableID       int64
	TableCode     string
	CustomerName  *string
	Lines         []OrderLine
	TotalAmount   decimal.Decimal
	Status        OrderStatus
	PaymentStatus PaymentState
	PaymentMethod PaymentMethod
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderLine struct {
	ID         int64
	OrderID    int64
	MenuItemID int64
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	Subtotal   decimal.Decimal
	Notes      string
	Modifiers  []LineModifier
}

type LineModifier struct {
	ID          int64
	OrderLineID int64
	ModifierID  int64
	Name        string
	Quantity    int
	UnitPrice   decimal.Decimal
}

type Payment struct {
	ID                int64
	OrderID           int64
	Amount            decimal.Decimal
	Method            PaymentMethod
	Status            PaymentStatus
	TransactionID     *string
	PaymentType       *string
	TransactionStatus *string
	FraudStatus       *string
	RawResponse       []byte
	PaidAt            *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PaymentNotification is one audited delivery of a payment outcome.
type PaymentNotification struct {
	ID                int64          `json:"id"`
	Source            string         `json:"source"`
	TransactionStatus string         `json:"transaction_status"`
	FraudStatus       string         `json:"fraud_status,omitempty"`
	StatusCode        string         `json:"status_code,omitempty"`
	GrossAmount       string         `json:"gross_amount,omitempty"`
	Outcome           Outcome        `json:"outcome"`
	Payload           map[string]any `json:"payload,omitempty"`
	ReceivedAt        time.Time      `json:"received_at"`
}

const (
	SourceWebhook     = "webhook"
	SourceStatusQuery = "status_query"
	SourceCash        = "cash"
)
