package queries

import (
	"time"

	"github.com/google/uuid"
)

// BookingView is the projection a client renders for the current step.
type BookingView struct {
	ID              uuid.UUID  `json:"id"`
	State           string     `json:"state"`
	CancelReason    string     `json:"cancel_reason,omitempty"`
	FacilityID      string     `json:"facility_id,omitempty"`
	FacilityName    string     `json:"facility_name,omitempty"`
	StartAt         time.Time  `json:"start_at"`
	Hours           int        `json:"hours"`
	CostMinor       int64      `json:"cost_minor"`
	Cost            string     `json:"cost"`
	Currency        string     `json:"currency"`
	PaymentMethod   string     `json:"payment_method,omitempty"`
	MethodLabel     string     `json:"payment_method_label,omitempty"`
	Contact         string     `json:"contact,omitempty"`
	HoldExpiresAt   *time.Time `json:"hold_expires_at,omitempty"`
	PaymentAttempts int        `json:"payment_attempts"`
	FailedAttempts  int        `json:"failed_attempts"`
	PaymentRef      string     `json:"payment_ref,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	Error           *ErrorView `json:"error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type ErrorView struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type FacilityView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	RateMinor  int64   `json:"rate_minor"`
	Rate       string  `json:"rate"`
	Currency   string  `json:"currency"`
	Capacity   int     `json:"capacity"`
	Available  int     `json:"available"`
	Selectable bool    `json:"selectable"`
}

type ConfirmationView struct {
	BookingID   uuid.UUID `json:"booking_id"`
	FacilityID  string    `json:"facility_id"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	Hours       int       `json:"hours"`
	CostMinor   int64     `json:"cost_minor"`
	Cost        string    `json:"cost"`
	Currency    string    `json:"currency"`
	PaymentRef  string    `json:"payment_ref"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}
