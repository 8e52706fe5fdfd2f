package service

import (
	"context"

	"restaurant-checkout/internal/domain"
	dto "restaurant-checkout/internal/microservices/checkout/domain/dto"
	"restaurant-checkout/internal/microservices/tracker/models"
	"restaurant-checkout/internal/microservices/tracker/repository"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type TrackerServiceInterface interface {
	GetOrder(ctx context.Context, orderNumber string) (models.OrderDetail, error)
	GetPaymentTimeline(ctx context.Context, orderNumber string, limit, offset int) (models.Timeline, error)
}

type TrackerService struct {
	repo repository.TrackerRepoInterface
}

func NewTrackerService(repo repository.TrackerRepoInterface) *TrackerService {
	return &TrackerService{repo: repo}
}

func (s *TrackerService) GetOrder(ctx context.Context, orderNumber string) (models.OrderDetail, error) {
	o, p, err := s.repo.GetOrder(ctx, orderNumber)
	if err != nil {
		return models.OrderDetail{}, err
	}
	out := models.OrderDetail{OrderView: dto.FromOrder(o), UpdatedAt: o.UpdatedAt}
	if p != nil {
		out.Payment = &models.PaymentSummary{
			Method:        string(p.Method),
			Status:        string(p.Status),
			Amount:        p.Amount,
			TransactionID: p.TransactionID,
			PaymentType:   p.PaymentType,
			PaidAt:        p.PaidAt,
		}
	}
	return out, nil
}

// GetPaymentTimeline returns audited deliveries oldest first. An order with
// no deliveries yet yields an empty timeline.
func (s *TrackerService) GetPaymentTimeline(ctx context.Context, orderNumber string, limit, offset int) (models.Timeline, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		return models.Timeline{}, domain.ValidationError{Field: "offset", Message: "must not be negative"}
	}
	if _, _, err := s.repo.GetOrder(ctx, orderNumber); err != nil {
		return models.Timeline{}, err
	}
	events, err := s.repo.GetPaymentTimeline(ctx, orderNumber, limit, offset)
	if err != nil {
		return models.Timeline{}, err
	}
	return models.Timeline{OrderNumber: orderNumber, Limit: limit, Offset: offset, Events: events}, nil
}
