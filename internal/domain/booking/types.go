package booking

type State string

const (
	StateDraft                 State = "Draft"
	StateAwaitingPaymentMethod State = "AwaitingPaymentMethod"
	StatePaymentInFlight       State = "PaymentInFlight"
	StatePaymentFailed         State = "PaymentFailed"
	StateConfirmed             State = "Confirmed"
	StateCancelled             State = "Cancelled"
)

func (s State) String() string {
	return string(s)
}

func (s State) IsValid() bool {
	switch s {
	case StateDraft, StateAwaitingPaymentMethod, StatePaymentInFlight,
		StatePaymentFailed, StateConfirmed, StateCancelled:
		return true
	default:
		return false
	}
}

func (s State) IsTerminal() bool {
	return s == StateConfirmed || s == StateCancelled
}

type CancelReason string

const (
	CancelReasonNone           CancelReason = ""
	CancelReasonUser           CancelReason = "UserCancelled"
	CancelReasonPaymentTimeout CancelReason = "PaymentTimeout"
)

func (r CancelReason) String() string {
	return string(r)
}
