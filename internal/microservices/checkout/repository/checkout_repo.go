package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"restaurant-checkout/internal/domain"
	"restaurant-checkout/internal/outbox"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CheckoutRepositoryInterface interface {
	LoadTable(ctx context.Context, code string) (domain.Table, error)
	LoadMenuItems(ctx context.Context, ids []int64) (map[int64]domain.MenuItem, error)
	LoadModifiers(ctx context.Context, ids []int64) (map[int64]domain.Modifier, error)
	// CreateOrder persists the order with its lines and modifiers, a pending
	// cash payment when the method is cash, and an order.created event. It
	// fills in ids, the order number and timestamps.
	CreateOrder(ctx context.Context, order *domain.Order) error
	AttachPayment(ctx context.Context, p domain.Payment) error
	// DeleteOrder removes an order together with its unsent order.created
	// event. If that event already went out, an order.cancelled event follows it.
	DeleteOrder(ctx context.Context, orderID int64, orderNumber string) error
}

type CheckoutRepository struct {
	db *pgxpool.Pool
}

func NewCheckoutRepository(db *pgxpool.Pool) CheckoutRepositoryInterface {
	return &CheckoutRepository{db: db}
}

func (r *CheckoutRepository) LoadTable(ctx context.Context, code string) (domain.Table, error) {
	var t domain.Table
	err := r.db.QueryRow(ctx,
		`SELECT id, code, name, status FROM tables WHERE code = $1`, code,
	).Scan(&t.ID, &t.Code, &t.Name, &t.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Table{}, domain.NotFound("table", code)
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("%w: load table: %v", domain.ErrPersistence, err)
	}
	return t, nil
}

func (r *CheckoutRepository) LoadMenuItems(ctx context.Context, ids []int64) (map[int64]domain.MenuItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, price, is_available FROM menu_items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: load menu items: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	out := make(map[int64]domain.MenuItem, len(ids))
	for rows.Next() {
		var m domain.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.IsAvailable); err != nil {
			return nil, fmt.Errorf("%w: scan menu item: %v", domain.ErrPersistence, err)
		}
		out[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load menu items: %v", domain.ErrPersistence, err)
	}
	return out, nil
}

func (r *CheckoutRepository) LoadModifiers(ctx context.Context, ids []int64) (map[int64]domain.Modifier, error) {
	out := make(map[int64]domain.Modifier, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, menu_item_id, name, price, is_available FROM modifiers WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: load modifiers: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.Modifier
		if err := rows.Scan(&m.ID, &m.MenuItemID, &m.Name, &m.Price, &m.IsAvailable); err != nil {
			return nil, fmt.Errorf("%w: scan modifier: %v", domain.ErrPersistence, err)
		}
		out[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load modifiers: %v", domain.ErrPersistence, err)
	}
	return out, nil
}

func (r *CheckoutRepository) CreateOrder(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO orders
		    (order_number, table_id, customer_name, total_amount, status, payment_status, payment_method, notes)
		VALUES
		    ('ORD-' || to_char(NOW() AT TIME ZONE 'UTC', 'YYYYMMDD') || '-' || lpad(nextval('order_number_seq')::text, 6, '0'),
		     $1, $2, $3, $4, $5, $6, $7)
		RETURNING id, order_number, created_at, updated_at`,
		o.TableID, o.CustomerName, o.TotalAmount, o.Status, o.PaymentStatus, o.PaymentMethod, o.Notes,
	).Scan(&o.ID, &o.Number, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return storeErr("insert order", err)
	}

	for i := range o.Lines {
		line := &o.Lines[i]
		line.OrderID = o.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, name, quantity, unit_price, subtotal, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			o.ID, line.MenuItemID, line.Name, line.Quantity, line.UnitPrice, line.Subtotal, line.Notes,
		).Scan(&line.ID)
		if err != nil {
			return storeErr(fmt.Sprintf("insert line %d", i), err)
		}
		for j := range line.Modifiers {
			mod := &line.Modifiers[j]
			mod.OrderLineID = line.ID
			err = tx.QueryRow(ctx, `
				INSERT INTO order_item_modifiers (order_item_id, modifier_id, name, quantity, unit_price)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id`,
				line.ID, mod.ModifierID, mod.Name, mod.Quantity, mod.UnitPrice,
			).Scan(&mod.ID)
			if err != nil {
				return storeErr(fmt.Sprintf("insert line %d modifier %d", i, j), err)
			}
		}
	}

	if o.PaymentMethod == domain.MethodCash {
		_, err = tx.Exec(ctx, `
			INSERT INTO payments (order_id, amount, method, status)
			VALUES ($1, $2, $3, $4)`,
			o.ID, o.TotalAmount, domain.MethodCash, domain.PaymentPending)
		if err != nil {
			return storeErr("insert cash payment", err)
		}
	}

	ev := outbox.NewEvent(domain.EventOrderCreated, o.Number, map[string]any{
		"table_code":     o.TableCode,
		"total_amount":   o.TotalAmount.String(),
		"payment_method": o.PaymentMethod,
		"lines":          len(o.Lines),
	})
	if err = outbox.Insert(ctx, tx, ev); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrPersistence, err)
	}
	return nil
}

// AttachPayment upserts the online payment row keyed by order id.
func (r *CheckoutRepository) AttachPayment(ctx context.Context, p domain.Payment) error {
	raw := p.RawResponse
	if raw == nil {
		raw = json.RawMessage(`{}`)
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO payments (order_id, amount, method, status, transaction_id, raw_response)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id) DO UPDATE SET
		    amount         = EXCLUDED.amount,
		    method         = EXCLUDED.method,
		    status         = EXCLUDED.status,
		    transaction_id = EXCLUDED.transaction_id,
		    raw_response   = EXCLUDED.raw_response,
		    updated_at     = NOW()`,
		p.OrderID, p.Amount, p.Method, p.Status, p.TransactionID, raw)
	if err != nil {
		return storeErr("upsert payment", err)
	}
	return nil
}

func (r *CheckoutRepository) DeleteOrder(ctx context.Context, orderID int64, orderNumber string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		DELETE FROM outbox
		WHERE key = $1 AND sent_at IS NULL AND payload->>'order_number' = $2`,
		domain.EventOrderCreated, orderNumber)
	if err != nil {
		return fmt.Errorf("%w: withdraw order event: %v", domain.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		ev := outbox.NewEvent(domain.EventOrderCancelled, orderNumber, map[string]any{"reason": "payment_unavailable"})
		if err := outbox.Insert(ctx, tx, ev); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
	}

	// lines, modifiers and payment go by cascade
	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
		return fmt.Errorf("%w: delete order: %v", domain.ErrPersistence, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrPersistence, err)
	}
	return nil
}

func storeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s: %s", domain.ErrConflict, op, pgErr.ConstraintName)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, op, err)
}
