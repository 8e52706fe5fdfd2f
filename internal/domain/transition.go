package domain

import "github.com/shopspring/decimal"

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentSettlement PaymentStatus = "settlement"
	PaymentCapture    PaymentStatus = "capture"
	PaymentExpire     PaymentStatus = "expire"
	PaymentCancel     PaymentStatus = "cancel"
	PaymentDeny       PaymentStatus = "deny"
	PaymentRefund     PaymentStatus = "refund"
	PaymentFailed     PaymentStatus = "failed"
)

// Terminal reports whether no further business transition is expected.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentSettlement, PaymentCapture, PaymentExpire, PaymentCancel,
		PaymentDeny, PaymentRefund, PaymentFailed:
		return true
	}
	return false
}

// Settled reports a successful terminal state, the only one a refund may follow.
func (s PaymentStatus) Settled() bool {
	return s == PaymentSettlement || s == PaymentCapture
}

// GatewayStatus is the transaction_status reported by the payment gateway.
type GatewayStatus string

const (
	GatewayCapture       GatewayStatus = "capture"
	GatewaySettlement    GatewayStatus = "settlement"
	GatewayPending       GatewayStatus = "pending"
	GatewayDeny          GatewayStatus = "deny"
	GatewayExpire        GatewayStatus = "expire"
	GatewayCancel        GatewayStatus = "cancel"
	GatewayFailure       GatewayStatus = "failure"
	GatewayRefund        GatewayStatus = "refund"
	GatewayPartialRefund GatewayStatus = "partial_refund"
)

type FraudStatus string

const (
	FraudAccept    FraudStatus = "accept"
	FraudChallenge FraudStatus = "challenge"
	FraudDeny      FraudStatus = "deny"
)

type Action int

const (
	ActionUnhandled Action = iota
	ActionHold
	ActionPending
	ActionConfirm
	ActionFail
	ActionRefund
)

func (a Action) String() string {
	switch a {
	case ActionHold:
		return "hold"
	case ActionPending:
		return "pending"
	case ActionConfirm:
		return "confirm"
	case ActionFail:
		return "fail"
	case ActionRefund:
		return "refund"
	default:
		return "unhandled"
	}
}

// Decision is what a gateway outcome asks for, before the current state is consulted.
type Decision struct {
	Action Action
	Status PaymentStatus
}

// Decide maps a gateway transaction status and fraud status onto an action.
func Decide(transactionStatus, fraudStatus string) Decision {
	switch GatewayStatus(transactionStatus) {
	case GatewayCapture:
		switch FraudStatus(fraudStatus) {
		case FraudChallenge:
			return Decision{Action: ActionHold, Status: PaymentPending}
		case FraudAccept, "":
			return Decision{Action: ActionConfirm, Status: PaymentSettlement}
		case FraudDeny:
			return Decision{Action: ActionFail, Status: PaymentDeny}
		default:
			return Decision{Action: ActionUnhandled}
		}
	case GatewaySettlement:
		return Decision{Action: ActionConfirm, Status: PaymentSettlement}
	case GatewayPending:
		return Decision{Action: ActionPending, Status: PaymentPending}
	case GatewayDeny:
		return Decision{Action: ActionFail, Status: PaymentDeny}
	case GatewayExpire:
		return Decision{Action: ActionFail, Status: PaymentExpire}
	case GatewayCancel:
		return Decision{Action: ActionFail, Status: PaymentCancel}
	case GatewayFailure:
		return Decision{Action: ActionFail, Status: PaymentFailed}
	case GatewayRefund, GatewayPartialRefund:
		return Decision{Action: ActionRefund, Status: PaymentRefund}
	default:
		return Decision{Action: ActionUnhandled}
	}
}

type Outcome string

const (
	OutcomeApplied        Outcome = "applied"
	OutcomeHold           Outcome = "hold"
	OutcomeDuplicate      Outcome = "duplicate"
	OutcomeIgnored        Outcome = "ignored_terminal"
	OutcomeUnhandled      Outcome = "unhandled"
	OutcomeAmountMismatch Outcome = "amount_mismatch"
)

// Plan is the effect a decision has on a payment in a given state.
// Order and table side effects are only carried when StatusChanged is set.
type Plan struct {
	Outcome       Outcome
	Status        PaymentStatus
	StatusChanged bool
	ConfirmOrder  bool
	CancelOrder   bool
}

// PlanTransition applies the monotonic rule: a terminal payment only ever moves
// from a settled state to refund, and a repeated status changes nothing.
func PlanTransition(current PaymentStatus, d Decision) Plan {
	keep := Plan{Status: current}

	if d.Action == ActionUnhandled {
		keep.Outcome = OutcomeUnhandled
		return keep
	}

	if current.Terminal() {
		switch {
		case current == d.Status:
			keep.Outcome = OutcomeDuplicate
		case d.Action == ActionRefund && current.Settled():
			return Plan{Outcome: OutcomeApplied, Status: PaymentRefund, StatusChanged: true}
		default:
			keep.Outcome = OutcomeIgnored
		}
		return keep
	}

	switch d.Action {
	case ActionHold:
		return Plan{Outcome: OutcomeHold, Status: PaymentPending, StatusChanged: current != PaymentPending}
	case ActionPending:
		if current == PaymentPending {
			keep.Outcome = OutcomeDuplicate
			return keep
		}
		return Plan{Outcome: OutcomeApplied, Status: PaymentPending, StatusChanged: true}
	case ActionConfirm:
		return Plan{Outcome: OutcomeApplied, Status: PaymentSettlement, StatusChanged: true, ConfirmOrder: true}
	case ActionFail:
		return Plan{Outcome: OutcomeApplied, Status: d.Status, StatusChanged: true, CancelOrder: true}
	default:
		// refund of a payment that never settled
		keep.Outcome = OutcomeIgnored
		return keep
	}
}

// MismatchPlan records a delivery whose amount disagrees with the stored payment.
func MismatchPlan(current PaymentStatus) Plan {
	return Plan{Outcome: OutcomeAmountMismatch, Status: current}
}

// Snapshot is an authenticated gateway outcome for one payment. Amount is in
// major units.
type Snapshot struct {
	Source            string
	TransactionID     string
	TransactionStatus string
	FraudStatus       string
	StatusCode        string
	GrossAmount       string
	Amount            decimal.Decimal
	PaymentType       string
	SignatureKey      string
	Raw               []byte
	Payload           map[string]any
}

// CashSnapshot is a cashier's confirmation that amount was collected.
func CashSnapshot(amount decimal.Decimal) Snapshot {
	return Snapshot{
		Source:            SourceCash,
		TransactionStatus: string(GatewaySettlement),
		GrossAmount:       amount.String(),
		Amount:            amount,
		Payload:           map[string]any{"confirmed_by": "cashier"},
	}
}

// Reconcile plans what snap does to p. A snapshot whose amount disagrees
// with the payment is never applied.
func Reconcile(p Payment, snap Snapshot) Plan {
	if !snap.Amount.Equal(p.Amount) {
		return MismatchPlan(p.Status)
	}
	return PlanTransition(p.Status, Decide(snap.TransactionStatus, snap.FraudStatus))
}

// ReconcileResult is returned by the store after a notification has been applied.
type ReconcileResult struct {
	OrderNumber   string
	TransactionID string
	Previous      PaymentStatus
	Plan          Plan
}
