package dto

import (
	"time"

	"restaurant-checkout/internal/domain"

	"github.com/shopspring/decimal"
)

type CheckoutRequest struct {
	TableCode     string     `json:"table_code"`
	CustomerName  *string    `json:"customer_name,omitempty"`
	PaymentMethod string     `json:"payment_method"`
	Notes         string     `json:"notes,omitempty"`
	Items         []CartLine `json:"items"`
}

// CartLine carries the unit price the customer was shown. It must match the
// catalog at checkout time.
type CartLine struct {
	MenuItemID int64           `json:"menu_item_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Notes      string          `json:"notes,omitempty"`
	Modifiers  []CartModifier  `json:"modifiers,omitempty"`
}

type CartModifier struct {
	ModifierID int64           `json:"modifier_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

type CheckoutResponse struct {
	Order   OrderView      `json:"order"`
	Payment *PaymentHandle `json:"payment,omitempty"`
}

// PaymentHandle is what the client needs to open the hosted payment page.
type PaymentHandle struct {
	TransactionID string `json:"transaction_id"`
	Token         string `json:"token"`
	RedirectURL   string `json:"redirect_url"`
}

type OrderView struct {
	OrderNumber   string          `json:"order_number"`
	TableCode     string          `json:"table_code"`
	CustomerName  *string         `json:"customer_name,omitempty"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	PaymentMethod string          `json:"payment_method"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Notes         string          `json:"notes,omitempty"`
	Lines         []LineView      `json:"lines"`
	CreatedAt     time.Time       `json:"created_at"`
}

type LineView struct {
	MenuItemID int64           `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Notes      string          `json:"notes,omitempty"`
	Modifiers  []ModifierView  `json:"modifiers,omitempty"`
}

type ModifierView struct {
	ModifierID int64           `json:"modifier_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

func FromOrder(o domain.Order) OrderView {
	v := OrderView{
		OrderNumber:   o.Number,
		TableCode:     o.TableCode,
		CustomerName:  o.CustomerName,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: string(o.PaymentMethod),
		TotalAmount:   o.TotalAmount,
		Notes:         o.Notes,
		Lines:         make([]LineView, 0, len(o.Lines)),
		CreatedAt:     o.CreatedAt,
	}
	for _, l := range o.Lines {
		lv := LineView{
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			Subtotal:   l.Subtotal,
			Notes:      l.Notes,
		}
		for _, m := range l.Modifiers {
			lv.Modifiers = append(lv.Modifiers, ModifierView{
				ModifierID: m.ModifierID,
				Name:       m.Name,
				Quantity:   m.Quantity,
				UnitPrice:  m.UnitPrice,
			})
		}
		v.Lines = append(v.Lines, lv)
	}
	return v
}
