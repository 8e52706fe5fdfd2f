package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"restaurant-checkout/internal/common/logger"
	"restaurant-checkout/internal/common/metrics"
	"restaurant-checkout/internal/config"
	"restaurant-checkout/internal/domain"
	dto "restaurant-checkout/internal/microservices/checkout/domain/dto"
	"restaurant-checkout/internal/microservices/checkout/repository"
	"restaurant-checkout/internal/microservices/payment/gateway"
	"restaurant-checkout/internal/pricing"

	"golang.org/x/sync/semaphore"
)

type CheckoutServiceInterface interface {
	Checkout(ctx context.Context, req dto.CheckoutRequest) (dto.CheckoutResponse, error)
}

// IntentCreator is the part of the gateway client checkout needs.
type IntentCreator interface {
	CreateIntent(ctx context.Context, req gateway.IntentRequest) (gateway.Intent, error)
}

type CheckoutService struct {
	repo     repository.CheckoutRepositoryInterface
	gateway  IntentCreator
	log      *logger.Logger
	metrics  *metrics.Metrics
	gwCfg    config.GatewayConfig
	inflight *semaphore.Weighted
	now      func() time.Time
}

func NewCheckoutService(
	repo repository.CheckoutRepositoryInterface,
	gw IntentCreator,
	log *logger.Logger,
	m *metrics.Metrics,
	gwCfg config.GatewayConfig,
	maxConcurrent int,
) *CheckoutService {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &CheckoutService{
		repo:     repo,
		gateway:  gw,
		log:      log,
		metrics:  m,
		gwCfg:    gwCfg,
		inflight: semaphore.NewWeighted(int64(maxConcurrent)),
		now:      time.Now,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, req dto.CheckoutRequest) (resp dto.CheckoutResponse, err error) {
	method := req.PaymentMethod
	if !domain.PaymentMethod(method).Valid() {
		method = "unknown"
	}
	if !s.inflight.TryAcquire(1) {
		s.metrics.Checkouts.WithLabelValues(method, "overloaded").Inc()
		return dto.CheckoutResponse{}, domain.ErrOverloaded
	}
	defer s.inflight.Release(1)

	defer func() {
		s.metrics.Checkouts.WithLabelValues(method, resultLabel(err)).Inc()
	}()

	if err := validate(req); err != nil {
		return dto.CheckoutResponse{}, err
	}

	order, err := s.buildOrder(ctx, req)
	if err != nil {
		return dto.CheckoutResponse{}, err
	}

	var intentReq gateway.IntentRequest
	if order.PaymentMethod == domain.MethodOnline {
		// Convert before persisting so a currency mismatch never leaves an order behind.
		if intentReq, err = s.intentRequest(order); err != nil {
			return dto.CheckoutResponse{}, err
		}
	}

	if err := s.repo.CreateOrder(ctx, &order); err != nil {
		s.log.Error("order_create_failed", err, map[string]any{"table_code": order.TableCode})
		return dto.CheckoutResponse{}, err
	}
	s.log.Info("order_created", map[string]any{
		"order_number":   order.Number,
		"total_amount":   order.TotalAmount.String(),
		"payment_method": order.PaymentMethod,
	})

	resp = dto.CheckoutResponse{Order: dto.FromOrder(order)}
	if order.PaymentMethod == domain.MethodCash {
		return resp, nil
	}

	handle, err := s.openPayment(ctx, order, intentReq)
	if err != nil {
		s.compensate(ctx, order, err)
		return dto.CheckoutResponse{}, err
	}
	resp.Payment = &handle
	return resp, nil
}

// buildOrder resolves the table and catalog, snapshots prices and computes totals.
func (s *CheckoutService) buildOrder(ctx context.Context, req dto.CheckoutRequest) (domain.Order, error) {
	table, err := s.repo.LoadTable(ctx, req.TableCode)
	if err != nil {
		return domain.Order{}, err
	}

	itemIDs := make([]int64, 0, len(req.Items))
	var modIDs []int64
	for _, l := range req.Items {
		itemIDs = append(itemIDs, l.MenuItemID)
		for _, m := range l.Modifiers {
			modIDs = append(modIDs, m.ModifierID)
		}
	}
	items, err := s.repo.LoadMenuItems(ctx, itemIDs)
	if err != nil {
		return domain.Order{}, err
	}
	mods, err := s.repo.LoadModifiers(ctx, modIDs)
	if err != nil {
		return domain.Order{}, err
	}

	lines := make([]domain.OrderLine, 0, len(req.Items))
	priced := make([]pricing.Line, 0, len(req.Items))
	for i, cl := range req.Items {
		path := fmt.Sprintf("items[%d]", i)
		item, ok := items[cl.MenuItemID]
		if !ok {
			return domain.Order{}, domain.NotFound("menu item", cl.MenuItemID)
		}
		if !item.IsAvailable {
			return domain.Order{}, domain.ValidationError{Field: path, Message: fmt.Sprintf("%s is not available", item.Name)}
		}
		if !cl.UnitPrice.Equal(item.Price) {
			return domain.Order{}, domain.ValidationError{Field: path + ".unit_price",
				Message: fmt.Sprintf("price changed to %s", item.Price)}
		}

		line := domain.OrderLine{
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   cl.Quantity,
			UnitPrice:  item.Price,
			Notes:      cl.Notes,
		}
		pl := pricing.Line{UnitPrice: item.Price, Quantity: cl.Quantity}
		for j, cm := range cl.Modifiers {
			mpath := fmt.Sprintf("%s.modifiers[%d]", path, j)
			mod, ok := mods[cm.ModifierID]
			if !ok {
				return domain.Order{}, domain.NotFound("modifier", cm.ModifierID)
			}
			if !mod.IsAvailable {
				return domain.Order{}, domain.ValidationError{Field: mpath, Message: fmt.Sprintf("%s is not available", mod.Name)}
			}
			if mod.MenuItemID != nil && *mod.MenuItemID != item.ID {
				return domain.Order{}, domain.ValidationError{Field: mpath, Message: fmt.Sprintf("%s does not apply to %s", mod.Name, item.Name)}
			}
			if !cm.UnitPrice.Equal(mod.Price) {
				return domain.Order{}, domain.ValidationError{Field: mpath + ".unit_price",
					Message: fmt.Sprintf("price changed to %s", mod.Price)}
			}
			line.Modifiers = append(line.Modifiers, domain.LineModifier{
				ModifierID: mod.ID,
				Name:       mod.Name,
				Quantity:   cm.Quantity,
				UnitPrice:  mod.Price,
			})
			pl.Modifiers = append(pl.Modifiers, pricing.Modifier{UnitPrice: mod.Price, Quantity: cm.Quantity})
		}
		lines = append(lines, line)
		priced = append(priced, pl)
	}

	quote := pricing.Price(priced)
	for i := range lines {
		lines[i].Subtotal = quote.Lines[i].Subtotal
	}

	return domain.Order{
		TableID:       table.ID,
		TableCode:     table.Code,
		CustomerName:  req.CustomerName,
		Lines:         lines,
		TotalAmount:   quote.Total,
		Status:        domain.OrderPending,
		PaymentStatus: domain.Unpaid,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
	}, nil
}

// intentRequest lists one item per line and one per modifier so the items sum
// to the gross amount.
func (s *CheckoutService) intentRequest(o domain.Order) (gateway.IntentRequest, error) {
	exp := s.gwCfg.CurrencyExponent
	total, err := gateway.ToMinorUnits(o.TotalAmount, exp)
	if err != nil {
		return gateway.IntentRequest{}, domain.ValidationError{Field: "items", Message: err.Error()}
	}
	req := gateway.IntentRequest{Amount: total}
	for _, l := range o.Lines {
		price, err := gateway.ToMinorUnits(l.UnitPrice, exp)
		if err != nil {
			return gateway.IntentRequest{}, domain.ValidationError{Field: "items", Message: err.Error()}
		}
		req.Items = append(req.Items, gateway.Item{
			ID:       strconv.FormatInt(l.MenuItemID, 10),
			Name:     truncate(l.Name, 50),
			Price:    price,
			Quantity: l.Quantity,
		})
		for _, m := range l.Modifiers {
			mp, err := gateway.ToMinorUnits(m.UnitPrice, exp)
			if err != nil {
				return gateway.IntentRequest{}, domain.ValidationError{Field: "items", Message: err.Error()}
			}
			req.Items = append(req.Items, gateway.Item{
				ID:       "mod-" + strconv.FormatInt(m.ModifierID, 10),
				Name:     truncate(l.Name+" + "+m.Name, 50),
				Price:    mp,
				Quantity: m.Quantity,
			})
		}
	}
	if o.CustomerName != nil && *o.CustomerName != "" {
		req.Customer = &gateway.Customer{FirstName: *o.CustomerName}
	}
	return req, nil
}

func (s *CheckoutService) openPayment(ctx context.Context, o domain.Order, req gateway.IntentRequest) (dto.PaymentHandle, error) {
	txID := fmt.Sprintf("%s-%s-%d", s.gwCfg.MerchantPrefix, o.Number, s.now().Unix())
	req.TransactionID = txID

	gctx, cancel := context.WithTimeout(ctx, s.gwCfg.Timeout)
	intent, err := s.gateway.CreateIntent(gctx, req)
	cancel()
	if err != nil {
		if !errors.Is(err, domain.ErrUpstream) {
			err = fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		return dto.PaymentHandle{}, err
	}

	raw, _ := json.Marshal(intent)
	if err := s.repo.AttachPayment(ctx, domain.Payment{
		OrderID:       o.ID,
		Amount:        o.TotalAmount,
		Method:        domain.MethodOnline,
		Status:        domain.PaymentPending,
		TransactionID: &txID,
		RawResponse:   raw,
	}); err != nil {
		return dto.PaymentHandle{}, err
	}

	s.log.Info("payment_intent_created", map[string]any{"order_number": o.Number, "transaction_id": txID})
	return dto.PaymentHandle{TransactionID: txID, Token: intent.Token, RedirectURL: intent.RedirectURL}, nil
}

// compensate removes an order whose payment could not be opened. It runs even
// when the request context is already cancelled.
func (s *CheckoutService) compensate(ctx context.Context, o domain.Order, cause error) {
	s.log.Error("payment_intent_failed", cause, map[string]any{"order_number": o.Number})
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.repo.DeleteOrder(dctx, o.ID, o.Number); err != nil {
		s.log.Error("order_compensation_failed", err, map[string]any{"order_number": o.Number})
		return
	}
	s.log.Info("order_rolled_back", map[string]any{"order_number": o.Number})
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUpstream):
		return "gateway_error"
	default:
		return "error"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
