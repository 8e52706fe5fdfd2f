package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"restaurant-checkout/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type TrackerRepoInterface interface {
	GetOrder(ctx context.Context, orderNumber string) (domain.Order, *domain.Payment, error)
	GetPaymentTimeline(ctx context.Context, orderNumber string, limit, offset int) ([]domain.PaymentNotification, error)
}

type TrackerRepo struct {
	db *pgxpool.Pool
}

func NewTrackerRepo(db *pgxpool.Pool) *TrackerRepo { return &TrackerRepo{db: db} }

func (r *TrackerRepo) GetOrder(ctx context.Context, orderNumber string) (domain.Order, *domain.Payment, error) {
	var o domain.Order
	err := r.db.QueryRow(ctx, `
		SELECT o.id, o.order_number, o.table_id, t.code, o.customer_name, o.total_amount,
		       o.status, o.payment_status, o.payment_method, o.notes, o.created_at, o.updated_at
		FROM orders o
		JOIN tables t ON t.id = o.table_id
		WHERE o.order_number = $1`, orderNumber,
	).Scan(&o.ID, &o.Number, &o.TableID, &o.TableCode, &o.CustomerName, &o.TotalAmount,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, nil, domain.NotFound("order", orderNumber)
	}
	if err != nil {
		return domain.Order{}, nil, fmt.Errorf("%w: load order: %v", domain.ErrPersistence, err)
	}

	if o.Lines, err = r.lines(ctx, o.ID); err != nil {
		return domain.Order{}, nil, err
	}

	var p domain.Payment
	err = r.db.QueryRow(ctx, `
		SELECT id, order_id, amount, method, status, transaction_id, payment_type,
		       transaction_status, fraud_status, paid_at, created_at, updated_at
		FROM payments WHERE order_id = $1`, o.ID,
	).Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status, &p.TransactionID, &p.PaymentType,
		&p.TransactionStatus, &p.FraudStatus, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return o, nil, nil
	}
	if err != nil {
		return domain.Order{}, nil, fmt.Errorf("%w: load payment: %v", domain.ErrPersistence, err)
	}
	return o, &p, nil
}

func (r *TrackerRepo) lines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.id, i.menu_item_id, i.name, i.quantity, i.unit_price, i.subtotal, i.notes,
		       m.id, m.modifier_id, m.name, m.quantity, m.unit_price
		FROM order_items i
		LEFT JOIN order_item_modifiers m ON m.order_item_id = i.id
		WHERE i.order_id = $1
		ORDER BY i.id, m.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: load lines: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var out []domain.OrderLine
	for rows.Next() {
		var (
			l       domain.OrderLine
			modID   *int64
			mod     domain.LineModifier
			modRef  *int64
			modName *string
			modQty  *int
			modUnit decimal.NullDecimal
		)
		if err := rows.Scan(&l.ID, &l.MenuItemID, &l.Name, &l.Quantity, &l.UnitPrice, &l.Subtotal, &l.Notes,
			&modID, &modRef, &modName, &modQty, &modUnit); err != nil {
			return nil, fmt.Errorf("%w: scan line: %v", domain.ErrPersistence, err)
		}
		if n := len(out); n == 0 || out[n-1].ID != l.ID {
			l.OrderID = orderID
			out = append(out, l)
		}
		if modID != nil {
			mod.ID, mod.OrderLineID, mod.ModifierID, mod.Name, mod.Quantity = *modID, l.ID, *modRef, *modName, *modQty
			mod.UnitPrice = modUnit.Decimal
			last := &out[len(out)-1]
			last.Modifiers = append(last.Modifiers, mod)
		}
	}
	return out, rows.Err()
}

func (r *TrackerRepo) GetPaymentTimeline(ctx context.Context, orderNumber string, limit, offset int) ([]domain.PaymentNotification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT n.id, n.source, n.transaction_status, COALESCE(n.fraud_status, ''), COALESCE(n.status_code, ''),
		       COALESCE(n.gross_amount, ''), n.outcome, n.payload, n.received_at
		FROM payment_notifications n
		JOIN payments p ON p.id = n.payment_id
		JOIN orders o ON o.id = p.order_id
		WHERE o.order_number = $1
		ORDER BY n.received_at ASC, n.id ASC
		LIMIT $2 OFFSET $3`, orderNumber, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: load timeline: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	out := []domain.PaymentNotification{}
	for rows.Next() {
		var (
			n          domain.PaymentNotification
			payloadRaw []byte
		)
		if err := rows.Scan(&n.ID, &n.Source, &n.TransactionStatus, &n.FraudStatus, &n.StatusCode,
			&n.GrossAmount, &n.Outcome, &payloadRaw, &n.ReceivedAt); err != nil {
			return nil, fmt.Errorf("%w: scan notification: %v", domain.ErrPersistence, err)
		}
		_ = json.Unmarshal(payloadRaw, &n.Payload)
		out = append(out, n)
	}
	return out, rows.Err()
}
