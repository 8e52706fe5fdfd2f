package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"restaurant-checkout/internal/common/metrics"
	"restaurant-checkout/internal/config"
	"restaurant-checkout/internal/domain"

	"github.com/shopspring/decimal"
)

const serverKey = "SB-Mid-server-test"

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(config.GatewayConfig{
		ServerKey: serverKey,
		SnapURL:   srv.URL,
		APIURL:    srv.URL,
		Timeout:   2 * time.Second,
	}, metrics.New("test"))
}

func TestCreateIntent(t *testing.T) {
	var got snapRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/snap/v1/transactions" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != serverKey || pass != "" {
			t.Errorf("basic auth = %q %q %v", user, pass, ok)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token":"tok-1","redirect_url":"https://pay.example/tok-1"}`))
	}))
	defer srv.Close()

	intent, err := newTestClient(srv).CreateIntent(context.Background(), IntentRequest{
		TransactionID: "RST-ORD-20240101-000001-1704067200",
		Amount:        53000,
		Items: []Item{
			{ID: "1", Name: "Nasi Goreng", Price: 25000, Quantity: 2},
			{ID: "mod-7", Name: "Extra Egg", Price: 3000, Quantity: 1},
		},
		Customer: &Customer{FirstName: "Budi"},
	})
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.Token != "tok-1" || intent.RedirectURL != "https://pay.example/tok-1" {
		t.Errorf("intent = %+v", intent)
	}
	if got.TransactionDetails.OrderID != "RST-ORD-20240101-000001-1704067200" || got.TransactionDetails.GrossAmount != 53000 {
		t.Errorf("transaction details = %+v", got.TransactionDetails)
	}
	if len(got.ItemDetails) != 2 || got.CustomerDetails.FirstName != "Budi" {
		t.Errorf("body = %+v", got)
	}
}

func TestCreateIntentFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"rejected", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error_messages":["transaction_details.gross_amount is not equal to the sum of item_details"]}`))
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"empty token", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestClient(srv).CreateIntent(context.Background(), IntentRequest{TransactionID: "x", Amount: 1})
			if !errors.Is(err, domain.ErrUpstream) {
				t.Fatalf("err = %v, want ErrUpstream", err)
			}
		})
	}
}

func TestCreateIntentTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newTestClient(srv).CreateIntent(ctx, IntentRequest{TransactionID: "x", Amount: 1})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

func TestQueryStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/known/status":
			_, _ = w.Write([]byte(`{"status_code":"200","order_id":"known","gross_amount":"53000.00","transaction_status":"settlement","fraud_status":"accept","payment_type":"qris"}`))
		case "/v2/missing/status":
			_, _ = w.Write([]byte(`{"status_code":"404","status_message":"Transaction doesn't exist."}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()
	c := newTestClient(srv)

	n, err := c.QueryStatus(context.Background(), "known")
	if err != nil {
		t.Fatalf("QueryStatus: %v", err)
	}
	if n.TransactionStatus != "settlement" || n.PaymentType != "qris" || len(n.Raw) == 0 {
		t.Errorf("notification = %+v", n)
	}

	if _, err := c.QueryStatus(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
	if _, err := c.QueryStatus(context.Background(), "broken"); !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("broken: err = %v, want ErrUpstream", err)
	}
}

func TestVerifier(t *testing.T) {
	v := NewVerifier(serverKey)
	n := Notification{OrderID: "RST-1", StatusCode: "200", GrossAmount: "53000.00", TransactionStatus: "settlement"}
	n.SignatureKey = v.Sign(n.OrderID, n.StatusCode, n.GrossAmount)

	if err := v.Verify(n); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if len(n.SignatureKey) != 128 {
		t.Errorf("signature length = %d", len(n.SignatureKey))
	}

	tampered := n
	tampered.GrossAmount = "1.00"
	if err := v.Verify(tampered); !errors.Is(err, domain.ErrAuthenticity) {
		t.Errorf("tampered amount: err = %v", err)
	}
	if err := NewVerifier("other-key").Verify(n); !errors.Is(err, domain.ErrAuthenticity) {
		t.Errorf("wrong key: err = %v", err)
	}
}

func TestParseNotification(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"ok with extra fields", `{"order_id":"a","status_code":"200","gross_amount":"10.00","transaction_status":"settlement","signature_key":"s","va_numbers":[{"bank":"bca"}]}`, ""},
		{"not json", `{`, "body"},
		{"missing order id", `{"status_code":"200","gross_amount":"10.00","transaction_status":"settlement","signature_key":"s"}`, "order_id"},
		{"missing signature", `{"order_id":"a","status_code":"200","gross_amount":"10.00","transaction_status":"settlement"}`, "signature_key"},
		{"bad amount", `{"order_id":"a","status_code":"200","gross_amount":"ten","transaction_status":"settlement","signature_key":"s"}`, "gross_amount"},
		{"status code of wrong type", `{"order_id":"a","status_code":true,"gross_amount":"10.00","transaction_status":"settlement","signature_key":"s"}`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseNotification([]byte(tt.body))
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if _, ok := n.Payload()["va_numbers"]; !ok {
					t.Errorf("extra field dropped from payload")
				}
				return
			}
			var ve domain.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("err = %v, want validation error on %s", err, tt.field)
			}
		})
	}
}

func TestParseNotificationNumericFields(t *testing.T) {
	v := NewVerifier("server-key")
	sig := v.Sign("RST-ORD-20240101-000001-1700000000", "200", "53000.00")

	tests := []struct {
		name string
		body string
	}{
		{"numeric status code", `{"order_id":"RST-ORD-20240101-000001-1700000000","status_code":200,"gross_amount":"53000.00","transaction_status":"settlement","signature_key":"` + sig + `"}`},
		{"numeric status and amount", `{"order_id":"RST-ORD-20240101-000001-1700000000","status_code":200,"gross_amount":53000.00,"transaction_status":"settlement","signature_key":"` + sig + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseNotification([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseNotification: %v", err)
			}
			if n.StatusCode != "200" || n.GrossAmount != "53000.00" {
				t.Errorf("status/amount = %q/%q", n.StatusCode, n.GrossAmount)
			}
			if err := v.Verify(n); err != nil {
				t.Errorf("Verify: %v", err)
			}
		})
	}
}

func TestMinorUnits(t *testing.T) {
	got, err := ToMinorUnits(decimal.RequireFromString("53000.00"), 0)
	if err != nil || got != 53000 {
		t.Errorf("IDR: %d, %v", got, err)
	}
	got, err = ToMinorUnits(decimal.RequireFromString("12.34"), 2)
	if err != nil || got != 1234 {
		t.Errorf("USD: %d, %v", got, err)
	}
	if _, err := ToMinorUnits(decimal.RequireFromString("12.5"), 0); err == nil {
		t.Errorf("fractional IDR accepted")
	}

	n := Notification{GrossAmount: "1234"}
	amt, err := n.Amount(2)
	if err != nil || !amt.Equal(decimal.RequireFromString("12.34")) {
		t.Errorf("Amount = %s, %v", amt, err)
	}
}
