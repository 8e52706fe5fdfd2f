package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"restaurant-checkout/internal/domain"
	"restaurant-checkout/internal/outbox"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepositoryInterface interface {
	// ApplySnapshot locks the payment identified by snap.TransactionID, audits
	// the snapshot and applies at most one transition, all in one transaction.
	ApplySnapshot(ctx context.Context, snap domain.Snapshot) (domain.ReconcileResult, error)
	// ConfirmCash settles the cash payment of an order.
	ConfirmCash(ctx context.Context, orderNumber string) (domain.ReconcileResult, error)
}

type PaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepositoryInterface {
	return &PaymentRepository{db: db}
}

type lockedPayment struct {
	domain.Payment
	OrderNumber string
	TableID     int64
}

const lockPaymentSQL = `
	SELECT p.id, p.order_id, p.amount, p.method, p.status, p.transaction_id, o.order_number, o.table_id
	FROM payments p
	JOIN orders o ON o.id = p.order_id
	WHERE %s
	FOR UPDATE OF p`

func lockPayment(ctx context.Context, tx pgx.Tx, where string, arg any) (lockedPayment, error) {
	var lp lockedPayment
	err := tx.QueryRow(ctx, fmt.Sprintf(lockPaymentSQL, where), arg).Scan(
		&lp.ID, &lp.OrderID, &lp.Amount, &lp.Method, &lp.Status, &lp.TransactionID, &lp.OrderNumber, &lp.TableID,
	)
	return lp, err
}

func (r *PaymentRepository) ApplySnapshot(ctx context.Context, snap domain.Snapshot) (domain.ReconcileResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("%w: begin: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	lp, err := lockPayment(ctx, tx, "p.transaction_id = $1", snap.TransactionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ReconcileResult{}, domain.NotFound("transaction", snap.TransactionID)
	}
	if err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("%w: lock payment: %v", domain.ErrPersistence, err)
	}

	res, err := applyLocked(ctx, tx, lp, snap)
	if err != nil {
		return domain.ReconcileResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("%w: commit: %v", domain.ErrPersistence, err)
	}
	return res, nil
}

func (r *PaymentRepository) ConfirmCash(ctx context.Context, orderNumber string) (domain.ReconcileResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("%w: begin: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	lp, err := lockPayment(ctx, tx, "o.order_number = $1", orderNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ReconcileResult{}, domain.NotFound("order", orderNumber)
	}
	if err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("%w: lock payment: %v", domain.ErrPersistence, err)
	}
	if lp.Method != domain.MethodCash {
		return domain.ReconcileResult{}, fmt.Errorf("%w: order %s is paid %s", domain.ErrConflict, orderNumber, lp.Method)
	}

	res, err := applyLocked(ctx, tx, lp, domain.CashSnapshot(lp.Amount))
	if err != nil {
		return domain.ReconcileResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("%w: commit: %v", domain.ErrPersistence, err)
	}
	return res, nil
}

// applyLocked runs with the payment row locked by tx. Every call writes one
// payment_notifications row whatever the outcome. Only a StatusChanged plan
// touches the order, and a confirm also marks the order's table occupied.
// The in-memory store in the service tests keeps the same rules.
func applyLocked(ctx context.Context, tx pgx.Tx, lp lockedPayment, snap domain.Snapshot) (domain.ReconcileResult, error) {
	plan := domain.Reconcile(lp.Payment, snap)
	res := domain.ReconcileResult{OrderNumber: lp.OrderNumber, Previous: lp.Status, Plan: plan}
	if lp.TransactionID != nil {
		res.TransactionID = *lp.TransactionID
	}

	payload, err := json.Marshal(snap.Payload)
	if err != nil {
		return res, fmt.Errorf("%w: marshal payload: %v", domain.ErrPersistence, err)
	}
	raw := snap.Raw
	if len(raw) == 0 {
		raw = payload
	}

	// The latest delivery is always recorded, even when it changes nothing.
	if _, err := tx.Exec(ctx, `
		UPDATE payments SET
		    payment_type       = COALESCE(NULLIF($2, ''), payment_type),
		    transaction_status = $3,
		    fraud_status       = NULLIF($4, ''),
		    signature_key      = NULLIF($5, ''),
		    raw_response       = $6,
		    updated_at         = NOW()
		WHERE id = $1`,
		lp.ID, snap.PaymentType, snap.TransactionStatus, snap.FraudStatus, snap.SignatureKey, raw,
	); err != nil {
		return res, fmt.Errorf("%w: record outcome: %v", domain.ErrPersistence, err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO payment_notifications
		    (payment_id, source, transaction_status, fraud_status, status_code, gross_amount, signature_key, payload, outcome)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9)`,
		lp.ID, snap.Source, snap.TransactionStatus, snap.FraudStatus, snap.StatusCode,
		snap.GrossAmount, snap.SignatureKey, payload, plan.Outcome,
	); err != nil {
		return res, fmt.Errorf("%w: audit notification: %v", domain.ErrPersistence, err)
	}

	if !plan.StatusChanged {
		return res, nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE payments SET
		    status  = $2,
		    paid_at = CASE WHEN $3 THEN NOW() ELSE paid_at END
		WHERE id = $1`,
		lp.ID, plan.Status, plan.ConfirmOrder,
	); err != nil {
		return res, fmt.Errorf("%w: update payment status: %v", domain.ErrPersistence, err)
	}

	switch {
	case plan.ConfirmOrder:
		if _, err := tx.Exec(ctx, `
			UPDATE orders SET payment_status = $2, status = $3, updated_at = NOW() WHERE id = $1`,
			lp.OrderID, domain.Paid, domain.OrderConfirmed,
		); err != nil {
			return res, fmt.Errorf("%w: confirm order: %v", domain.ErrPersistence, err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE tables SET status = $2, updated_at = NOW() WHERE id = $1`,
			lp.TableID, domain.TableOccupied,
		); err != nil {
			return res, fmt.Errorf("%w: occupy table: %v", domain.ErrPersistence, err)
		}
	case plan.CancelOrder:
		if _, err := tx.Exec(ctx, `
			UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
			lp.OrderID, domain.OrderCancelled,
		); err != nil {
			return res, fmt.Errorf("%w: cancel order: %v", domain.ErrPersistence, err)
		}
	}

	ev := outbox.NewEvent(domain.PaymentEventType(plan), lp.OrderNumber, map[string]any{
		"transaction_id": res.TransactionID,
		"previous":       lp.Status,
		"status":         plan.Status,
		"source":         snap.Source,
	})
	if err := outbox.Insert(ctx, tx, ev); err != nil {
		return res, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return res, nil
}
