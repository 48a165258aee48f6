package response

import (
	"parking-reservation/internal/usecase/queries"
)

type FacilityListResponse struct {
	Facilities []*queries.FacilityView `json:"facilities"`
	Total      int                     `json:"total"`
}

func FromFacilityViews(views []*queries.FacilityView) *FacilityListResponse {
	if views == nil {
		views = []*queries.FacilityView{}
	}
	return &FacilityListResponse{Facilities: views, Total: len(views)}
}

type ConfirmationListResponse struct {
	Confirmations []*queries.ConfirmationView `json:"confirmations"`
	Total         int                         `json:"total"`
}

func FromConfirmationViews(views []*queries.ConfirmationView) *ConfirmationListResponse {
	if views == nil {
		views = []*queries.ConfirmationView{}
	}
	return &ConfirmationListResponse{Confirmations: views, Total: len(views)}
}

type PaymentCallbackResponse struct {
	Applied bool                 `json:"applied"`
	Booking *queries.BookingView `json:"booking,omitempty"`
}
