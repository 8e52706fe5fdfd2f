package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"restaurant-checkout/internal/domain"

	"github.com/shopspring/decimal"
)

// Notification is a transaction status snapshot, delivered either by webhook
// or returned from a status query. OrderID carries our minted transaction id.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	TransactionStatus string `json:"transaction_status"`
	SignatureKey      string `json:"signature_key"`
	FraudStatus       string `json:"fraud_status,omitempty"`
	PaymentType       string `json:"payment_type,omitempty"`
	TransactionID     string `json:"transaction_id,omitempty"`
	TransactionTime   string `json:"transaction_time,omitempty"`

	// Raw is the body as received, extra fields included.
	Raw []byte `json:"-"`
}

// UnmarshalJSON accepts status_code and gross_amount as JSON strings or
// numbers. Numbers keep their literal text, which is what the signature covers.
func (n *Notification) UnmarshalJSON(b []byte) error {
	type plain Notification
	aux := struct {
		*plain
		StatusCode  looseString `json:"status_code"`
		GrossAmount looseString `json:"gross_amount"`
	}{plain: (*plain)(n)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	n.StatusCode, n.GrossAmount = string(aux.StatusCode), string(aux.GrossAmount)
	return nil
}

type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = looseString(num)
	return nil
}

// ParseNotification decodes a webhook body and checks that every field the
// reconciler relies on is present.
func ParseNotification(raw []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return Notification{}, domain.ValidationError{Field: "body", Message: "malformed JSON"}
	}
	required := []struct {
		field string
		value string
	}{
		{"order_id", n.OrderID},
		{"status_code", n.StatusCode},
		{"gross_amount", n.GrossAmount},
		{"transaction_status", n.TransactionStatus},
		{"signature_key", n.SignatureKey},
	}
	for _, r := range required {
		if r.value == "" {
			return Notification{}, domain.ValidationError{Field: r.field, Message: "required"}
		}
	}
	if _, err := decimal.NewFromString(n.GrossAmount); err != nil {
		return Notification{}, domain.ValidationError{Field: "gross_amount", Message: "not a number"}
	}
	n.Raw = append([]byte(nil), raw...)
	return n, nil
}

// Amount returns the gross amount in major units.
func (n Notification) Amount(exponent int32) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(n.GrossAmount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("gross_amount %q: %w", n.GrossAmount, err)
	}
	return d.Shift(-exponent), nil
}

// Payload returns the raw body as a generic map for auditing.
func (n Notification) Payload() map[string]any {
	out := map[string]any{}
	if len(n.Raw) > 0 && json.Unmarshal(n.Raw, &out) == nil {
		return out
	}
	b, _ := json.Marshal(n)
	_ = json.Unmarshal(b, &out)
	return out
}

type Verifier struct{ serverKey string }

func NewVerifier(serverKey string) *Verifier { return &Verifier{serverKey: serverKey} }

// Sign returns hex(SHA-512(order_id + status_code + gross_amount + server_key)).
func (v *Verifier) Sign(orderID, statusCode, grossAmount string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + v.serverKey))
	return hex.EncodeToString(sum[:])
}

func (v *Verifier) Verify(n Notification) error {
	want := v.Sign(n.OrderID, n.StatusCode, n.GrossAmount)
	if subtle.ConstantTimeCompare([]byte(want), []byte(n.SignatureKey)) != 1 {
		return domain.ErrAuthenticity
	}
	return nil
}
