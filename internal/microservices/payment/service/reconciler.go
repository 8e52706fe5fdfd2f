package service

import (
	"context"
	"errors"
	"time"

	"restaurant-checkout/internal/common/logger"
	"restaurant-checkout/internal/common/metrics"
	"restaurant-checkout/internal/domain"
	"restaurant-checkout/internal/microservices/payment/gateway"
	"restaurant-checkout/internal/microservices/payment/repository"
)

type ReconcilerServiceInterface interface {
	HandleNotification(ctx context.Context, raw []byte) (domain.ReconcileResult, error)
	SyncStatus(ctx context.Context, transactionID string) (domain.ReconcileResult, error)
	ConfirmCash(ctx context.Context, orderNumber string) (domain.ReconcileResult, error)
}

type StatusQuerier interface {
	QueryStatus(ctx context.Context, transactionID string) (gateway.Notification, error)
}

type ReconcilerService struct {
	repo     repository.PaymentRepositoryInterface
	verifier *gateway.Verifier
	gateway  StatusQuerier
	log      *logger.Logger
	metrics  *metrics.Metrics
	exponent int32
	timeout  time.Duration
}

func NewReconcilerService(
	repo repository.PaymentRepositoryInterface,
	verifier *gateway.Verifier,
	gw StatusQuerier,
	log *logger.Logger,
	m *metrics.Metrics,
	currencyExponent int32,
	timeout time.Duration,
) *ReconcilerService {
	return &ReconcilerService{
		repo:     repo,
		verifier: verifier,
		gateway:  gw,
		log:      log,
		metrics:  m,
		exponent: currencyExponent,
		timeout:  timeout,
	}
}

// HandleNotification authenticates a webhook body and reconciles it. Every
// rejection happens before anything is written, so gateway retries are safe.
func (s *ReconcilerService) HandleNotification(ctx context.Context, raw []byte) (domain.ReconcileResult, error) {
	n, err := gateway.ParseNotification(raw)
	if err != nil {
		s.metrics.Notifications.WithLabelValues("malformed").Inc()
		s.log.Warn("notification_malformed", map[string]any{"reason": err.Error()})
		return domain.ReconcileResult{}, err
	}

	if err := s.verifier.Verify(n); err != nil {
		s.metrics.Notifications.WithLabelValues("invalid_signature").Inc()
		s.log.Warn("security_event", map[string]any{
			"reason":             "signature_mismatch",
			"transaction_id":     n.OrderID,
			"transaction_status": n.TransactionStatus,
			"gross_amount":       n.GrossAmount,
		})
		return domain.ReconcileResult{}, err
	}

	return s.apply(ctx, n, domain.SourceWebhook)
}

// SyncStatus pulls the current status from the gateway and reconciles it.
// The status API is authenticated by our server key, so no signature check.
func (s *ReconcilerService) SyncStatus(ctx context.Context, transactionID string) (domain.ReconcileResult, error) {
	qctx, cancel := context.WithTimeout(ctx, s.timeout)
	n, err := s.gateway.QueryStatus(qctx, transactionID)
	cancel()
	if err != nil {
		s.log.Error("status_query_failed", err, map[string]any{"transaction_id": transactionID})
		return domain.ReconcileResult{}, err
	}
	n.OrderID = transactionID
	return s.apply(ctx, n, domain.SourceStatusQuery)
}

func (s *ReconcilerService) ConfirmCash(ctx context.Context, orderNumber string) (domain.ReconcileResult, error) {
	res, err := s.repo.ConfirmCash(ctx, orderNumber)
	if err != nil {
		s.log.Error("cash_confirmation_failed", err, map[string]any{"order_number": orderNumber})
		return domain.ReconcileResult{}, err
	}
	s.record(res, domain.SourceCash, "")
	return res, nil
}

func (s *ReconcilerService) apply(ctx context.Context, n gateway.Notification, source string) (domain.ReconcileResult, error) {
	amount, err := n.Amount(s.exponent)
	if err != nil {
		return domain.ReconcileResult{}, domain.ValidationError{Field: "gross_amount", Message: err.Error()}
	}

	res, err := s.repo.ApplySnapshot(ctx, domain.Snapshot{
		Source:            source,
		TransactionID:     n.OrderID,
		TransactionStatus: n.TransactionStatus,
		FraudStatus:       n.FraudStatus,
		StatusCode:        n.StatusCode,
		GrossAmount:       n.GrossAmount,
		Amount:            amount,
		PaymentType:       n.PaymentType,
		SignatureKey:      n.SignatureKey,
		Raw:               n.Raw,
		Payload:           n.Payload(),
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.Notifications.WithLabelValues("unknown_transaction").Inc()
		s.log.Warn("security_event", map[string]any{
			"reason":         "unknown_transaction",
			"transaction_id": n.OrderID,
			"source":         source,
		})
		return domain.ReconcileResult{}, err
	case err != nil:
		s.metrics.Notifications.WithLabelValues("error").Inc()
		s.log.Error("notification_apply_failed", err, map[string]any{"transaction_id": n.OrderID, "source": source})
		return domain.ReconcileResult{}, err
	}

	s.record(res, source, n.TransactionStatus)
	return res, nil
}

func (s *ReconcilerService) record(res domain.ReconcileResult, source, gatewayStatus string) {
	s.metrics.Notifications.WithLabelValues(string(res.Plan.Outcome)).Inc()
	fields := map[string]any{
		"order_number":       res.OrderNumber,
		"transaction_id":     res.TransactionID,
		"source":             source,
		"transaction_status": gatewayStatus,
		"previous_status":    res.Previous,
		"status":             res.Plan.Status,
		"outcome":            res.Plan.Outcome,
	}
	switch res.Plan.Outcome {
	case domain.OutcomeUnhandled:
		s.log.Warn("payment_status_unhandled", fields)
	case domain.OutcomeAmountMismatch:
		fields["reason"] = "amount_mismatch"
		s.log.Warn("security_event", fields)
	case domain.OutcomeIgnored:
		s.log.Warn("payment_transition_ignored", fields)
	case domain.OutcomeApplied:
		s.log.Info("payment_transition_applied", fields)
	default:
		s.log.Debug("payment_notification_recorded", fields)
	}
}

