package errs

// Domain-specific sentinel errors shared by the workflow layers
var (
	// Inventory errors
	ErrCapacityExhausted = New("capacity exhausted")
	ErrInvalidHold       = New("invalid hold")
	ErrFacilityNotFound  = New("facility not found")

	// Booking errors
	ErrBookingNotFound  = New("booking not found")
	ErrInvalidDuration  = New("invalid duration")
	ErrInvalidStartTime = New("invalid start time")
	ErrInvalidState     = New("invalid state")
	ErrPriceChanged     = New("price changed")
	ErrAlreadyConfirmed = New("booking already confirmed")
	ErrInvalidContact   = New("invalid contact")
	ErrInvalidPayMethod = New("invalid payment method")

	// Payment errors
	ErrPaymentDeclined     = New("payment declined")
	ErrPaymentTimeout      = New("payment timeout")
	ErrIdempotencyConflict = New("idempotency key reused with different amount")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrCapacityExhausted, "CapacityExhausted"},
	{ErrInvalidHold, "InvalidHold"},
	{ErrFacilityNotFound, "FacilityNotFound"},
	{ErrBookingNotFound, "BookingNotFound"},
	{ErrInvalidDuration, "InvalidDuration"},
	{ErrInvalidStartTime, "InvalidStartTime"},
	{ErrInvalidState, "InvalidState"},
	{ErrPriceChanged, "PriceChanged"},
	{ErrAlreadyConfirmed, "AlreadyConfirmed"},
	{ErrInvalidContact, "InvalidContact"},
	{ErrInvalidPayMethod, "InvalidPaymentMethod"},
	{ErrPaymentDeclined, "PaymentDeclined"},
	{ErrPaymentTimeout, "PaymentTimeout"},
	{ErrIdempotencyConflict, "IdempotencyConflict"},
}

// KindOf returns the stable name of the first domain kind err carries, or "" when none.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if Is(err, k.err) {
			return k.name
		}
	}
	return ""
}
