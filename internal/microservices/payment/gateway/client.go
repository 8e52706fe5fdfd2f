package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"restaurant-checkout/internal/common/metrics"
	"restaurant-checkout/internal/config"
	"restaurant-checkout/internal/domain"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type Customer struct {
	FirstName string `json:"first_name"`
}

// IntentRequest amounts are in currency minor units.
type IntentRequest struct {
	TransactionID string
	Amount        int64
	Items         []Item
	Customer      *Customer
}

type Intent struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	QueryStatus(ctx context.Context, transactionID string) (Notification, error)
}

type Client struct {
	http      *http.Client
	serverKey string
	snapURL   string
	apiURL    string
	metrics   *metrics.Metrics
}

func NewClient(cfg config.GatewayConfig, m *metrics.Metrics) *Client {
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		serverKey: cfg.ServerKey,
		snapURL:   strings.TrimRight(cfg.SnapURL, "/"),
		apiURL:    strings.TrimRight(cfg.APIURL, "/"),
		metrics:   m,
	}
}

type transactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type snapRequest struct {
	TransactionDetails transactionDetails `json:"transaction_details"`
	ItemDetails        []Item             `json:"item_details,omitempty"`
	CustomerDetails    *Customer          `json:"customer_details,omitempty"`
}

type snapResponse struct {
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	ErrorMessages []string `json:"error_messages"`
}

func (c *Client) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	defer c.observe("create_intent", time.Now())

	body, err := json.Marshal(snapRequest{
		TransactionDetails: transactionDetails{OrderID: req.TransactionID, GrossAmount: req.Amount},
		ItemDetails:        req.Items,
		CustomerDetails:    req.Customer,
	})
	if err != nil {
		return Intent{}, fmt.Errorf("marshal intent: %w", err)
	}

	var out snapResponse
	code, err := c.do(ctx, http.MethodPost, c.snapURL+"/snap/v1/transactions", body, &out)
	if err != nil {
		return Intent{}, fmt.Errorf("%w: create intent: %v", domain.ErrUpstream, err)
	}
	if code < 200 || code > 299 {
		return Intent{}, fmt.Errorf("%w: create intent: status %d: %s",
			domain.ErrUpstream, code, strings.Join(out.ErrorMessages, "; "))
	}
	if out.Token == "" {
		return Intent{}, fmt.Errorf("%w: create intent: empty token", domain.ErrUpstream)
	}
	return Intent{Token: out.Token, RedirectURL: out.RedirectURL}, nil
}

func (c *Client) QueryStatus(ctx context.Context, transactionID string) (Notification, error) {
	defer c.observe("query_status", time.Now())

	var raw json.RawMessage
	code, err := c.do(ctx, http.MethodGet, c.apiURL+"/v2/"+url.PathEscape(transactionID)+"/status", nil, &raw)
	if err != nil {
		return Notification{}, fmt.Errorf("%w: query status: %v", domain.ErrUpstream, err)
	}

	var n Notification
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &n); err != nil {
			return Notification{}, fmt.Errorf("%w: query status: decode: %v", domain.ErrUpstream, err)
		}
	}
	if code == http.StatusNotFound || n.StatusCode == "404" {
		return Notification{}, domain.NotFound("transaction", transactionID)
	}
	if code < 200 || code > 299 || n.TransactionStatus == "" {
		return Notification{}, fmt.Errorf("%w: query status: status %d", domain.ErrUpstream, code)
	}
	if n.OrderID == "" {
		n.OrderID = transactionID
	}
	n.Raw = raw
	return n, nil
}

func (c *Client) do(ctx context.Context, method, target string, body []byte, out any) (int, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return 0, err
	}
	req.SetBasicAuth(c.serverKey, "")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, err
	}
	if len(data) > 0 {
		// error bodies are best effort
		_ = json.Unmarshal(data, out)
	}
	return resp.StatusCode, nil
}

func (c *Client) observe(op string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.GatewayLatency.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
}

// ToMinorUnits converts a major-unit amount for a currency with the given exponent.
func ToMinorUnits(amount decimal.Decimal, exponent int32) (int64, error) {
	shifted := amount.Shift(exponent)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more precision than the currency allows", amount)
	}
	return shifted.IntPart(), nil
}
