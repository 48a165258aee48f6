package request

import (
	"time"

	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/usecase/commands"
)

type StartBookingRequest struct {
	StartAt    *time.Time `json:"start_at"`
	FacilityID string     `json:"facility_id" binding:"omitempty,max=64"`
}

func (r *StartBookingRequest) ToInput() commands.StartBookingInput {
	return commands.StartBookingInput{
		StartAt:    r.StartAt,
		FacilityID: facility.ID(r.FacilityID),
	}
}

type SelectFacilityRequest struct {
	FacilityID string `json:"facility_id" binding:"required,max=64"`
}

// Hours is a pointer so a zero reaches the workflow and is reported as an
// invalid duration instead of a missing field.
type SetDurationRequest struct {
	Hours *float64 `json:"hours" binding:"required"`
}

type SetStartTimeRequest struct {
	StartAt time.Time `json:"start_at" binding:"required"`
}

type SubmitPaymentRequest struct {
	Method  string `json:"method"`
	Contact string `json:"contact"`
}

func (r *SubmitPaymentRequest) ToInput() commands.SubmitPaymentInput {
	return commands.SubmitPaymentInput{Method: r.Method, Contact: r.Contact}
}
