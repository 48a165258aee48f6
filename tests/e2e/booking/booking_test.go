//go:build e2e

package booking_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"parking-reservation/internal/domain/booking"
	"parking-reservation/internal/usecase/queries"
	"parking-reservation/tests/common/dbtest"
	"parking-reservation/tests/common/httptest"
	"parking-reservation/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	bookingsURL     = "/api/bookings"
	bookingURL      = "/api/bookings/%s"
	facilityURL     = "/api/bookings/%s/facility"
	durationURL     = "/api/bookings/%s/duration"
	submitURL       = "/api/bookings/%s/submit"
	paymentURL      = "/api/bookings/%s/payment"
	cancelURL       = "/api/bookings/%s/cancel"
	confirmationURL = "/api/bookings/%s/confirmation"

	cbd       = "cbd-parking-complex"
	westlands = "westlands-secure-parking"
)

type BookingSuite struct {
	e2e.SharedSuite
}

func (s *BookingSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(BookingSuite))
}

// =============================================================================
// helpers
// =============================================================================

func (s *BookingSuite) startBooking(t *testing.T, facilityID string) *queries.BookingView {
	t.Helper()

	w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, map[string]any{})
	var view queries.BookingView
	httptest.AssertSuccessResponse(t, w, http.StatusCreated, &view)
	require.Equal(t, booking.StateDraft.String(), view.State)

	if facilityID != "" {
		w = httptest.PerformRequest(t, s.Router, http.MethodPut, fmt.Sprintf(facilityURL, view.ID),
			map[string]any{"facility_id": facilityID})
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &view)
	}
	return &view
}

func (s *BookingSuite) heldBooking(t *testing.T, facilityID string, hours float64) *queries.BookingView {
	t.Helper()

	view := s.startBooking(t, facilityID)
	w := httptest.PerformRequest(t, s.Router, http.MethodPut, fmt.Sprintf(durationURL, view.ID),
		map[string]any{"hours": hours})
	httptest.AssertSuccessResponse(t, w, http.StatusOK, view)

	w = httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(submitURL, view.ID), nil)
	httptest.AssertSuccessResponse(t, w, http.StatusOK, view)
	require.Equal(t, booking.StateAwaitingPaymentMethod.String(), view.State)
	require.NotNil(t, view.HoldExpiresAt)
	return view
}

// =============================================================================
// TestBookingFlow - draft to confirmation against Postgres
// =============================================================================

func (s *BookingSuite) TestBookingFlow() {
	s.Run("Normal case: paid booking is confirmed and recorded once", func() {
		t := s.T()
		require.Equal(t, 12, dbtest.Available(t, s.DB, cbd))

		view := s.heldBooking(t, cbd, 3)
		require.EqualValues(t, 18000, view.CostMinor)
		require.Equal(t, 11, dbtest.Available(t, s.DB, cbd), "submit should hold one unit")

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(paymentURL, view.ID),
			map[string]any{"method": "mpesa", "contact": "0712 345 678"})
		var paid queries.BookingView
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &paid)
		httptest.AssertHeaders(t, w, map[string]string{"Content-Type": "application/json; charset=utf-8"})

		require.Equal(t, booking.StateConfirmed.String(), paid.State)
		require.Equal(t, "+254712345678", paid.Contact)
		require.NotEmpty(t, paid.PaymentRef)
		require.Equal(t, 1, paid.PaymentAttempts)

		require.Equal(t, 11, dbtest.Available(t, s.DB, cbd), "confirmed unit stays taken")
		require.Equal(t, 1, dbtest.CountConfirmed(t, s.DB))

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(confirmationURL, view.ID), nil)
		var got queries.ConfirmationView
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &got)

		want := queries.ConfirmationView{
			BookingID:  view.ID,
			FacilityID: cbd,
			StartAt:    view.StartAt,
			EndAt:      view.StartAt.Add(3 * time.Hour),
			Hours:      3,
			CostMinor:  18000,
			Cost:       "180.00",
			Currency:   "Ksh",
			PaymentRef: paid.PaymentRef,
		}
		diff := cmp.Diff(want, got,
			cmpopts.IgnoreFields(queries.ConfirmationView{}, "ConfirmedAt"),
			cmpopts.EquateApproxTime(time.Millisecond),
		)
		require.Empty(t, diff, "confirmation mismatch (-want +got):\n%s", diff)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, "/api/confirmations", nil)
		var list struct {
			Confirmations []queries.ConfirmationView `json:"confirmations"`
			Total         int                        `json:"total"`
		}
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &list)
		require.Equal(t, 1, list.Total)
		require.Equal(t, view.ID, list.Confirmations[0].BookingID)
	})

	s.Run("Normal case: paying a confirmed booking again is rejected", func() {
		t := s.T()
		view := s.heldBooking(t, cbd, 1)
		body := map[string]any{"method": "airtel", "contact": "0733000111"}

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(paymentURL, view.ID), body)
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(paymentURL, view.ID), body)
		httptest.AssertErrorKind(t, w, http.StatusConflict, "InvalidState")
		require.Equal(t, 1, dbtest.CountConfirmed(t, s.DB))
	})
}

// =============================================================================
// TestAvailability - capacity and cancellation
// =============================================================================

func (s *BookingSuite) TestAvailability() {
	s.Run("Error case: full facility cannot be selected", func() {
		t := s.T()
		dbtest.SetAvailable(t, s.DB, westlands, 0)

		view := s.startBooking(t, "")
		w := httptest.PerformRequest(t, s.Router, http.MethodPut, fmt.Sprintf(facilityURL, view.ID),
			map[string]any{"facility_id": westlands})
		body := httptest.AssertErrorKind(t, w, http.StatusConflict, "CapacityExhausted")
		require.NotEmpty(t, body.Detail, "rejection carries the booking view")
	})

	s.Run("Error case: last unit taken between selection and submit", func() {
		t := s.T()
		dbtest.SetAvailable(t, s.DB, westlands, 1)

		first := s.startBooking(t, westlands)
		second := s.startBooking(t, westlands)
		for _, v := range []*queries.BookingView{first, second} {
			w := httptest.PerformRequest(t, s.Router, http.MethodPut, fmt.Sprintf(durationURL, v.ID),
				map[string]any{"hours": 2})
			require.Equal(t, http.StatusOK, w.Code)
		}

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(submitURL, first.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(submitURL, second.ID), nil)
		httptest.AssertErrorKind(t, w, http.StatusConflict, "CapacityExhausted")
		require.Equal(t, 0, dbtest.Available(t, s.DB, westlands))
	})

	s.Run("Normal case: cancel releases the held unit", func() {
		t := s.T()
		view := s.heldBooking(t, cbd, 2)
		require.Equal(t, 11, dbtest.Available(t, s.DB, cbd))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(cancelURL, view.ID), nil)
		var cancelled queries.BookingView
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &cancelled)
		require.Equal(t, booking.StateCancelled.String(), cancelled.State)
		require.Equal(t, booking.CancelReasonUser.String(), cancelled.CancelReason)

		require.Equal(t, 12, dbtest.Available(t, s.DB, cbd))
		require.Equal(t, 0, dbtest.CountConfirmed(t, s.DB))

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(confirmationURL, view.ID), nil)
		httptest.AssertErrorKind(t, w, http.StatusNotFound, "BookingNotFound")
	})
}

// =============================================================================
// TestFacilities - catalog listing
// =============================================================================

func (s *BookingSuite) TestFacilities() {
	s.Run("Normal case: full facilities are listed but not selectable", func() {
		t := s.T()
		dbtest.SetAvailable(t, s.DB, westlands, 0)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, "/api/facilities", nil)
		var list struct {
			Facilities []queries.FacilityView `json:"facilities"`
			Total      int                    `json:"total"`
		}
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &list)
		require.Equal(t, 4, list.Total)

		selectable := map[string]bool{}
		for _, f := range list.Facilities {
			selectable[f.ID] = f.Selectable
		}
		require.False(t, selectable[westlands])
		require.True(t, selectable[cbd])
	})

	s.Run("Error case: unknown booking", func() {
		t := s.T()
		w := httptest.PerformRequest(t, s.Router, http.MethodGet,
			fmt.Sprintf(bookingURL, "0190b4c2-0000-7000-8000-000000000000"), nil)
		httptest.AssertErrorKind(t, w, http.StatusNotFound, "BookingNotFound")
	})
}

// =============================================================================
// TestRouter - health and CORS
// =============================================================================

func (s *BookingSuite) TestRouter() {
	s.Run("Normal case: health check answers allowed origins", func() {
		t := s.T()
		w := httptest.PerformRawRequest(t, s.Router, http.MethodGet, "/health", "",
			map[string]string{"Origin": "http://localhost:3000"})
		require.Equal(t, http.StatusOK, w.Code)
		httptest.AssertHeaders(t, w, map[string]string{
			"Access-Control-Allow-Origin":      "http://localhost:3000",
			"Access-Control-Allow-Credentials": "true",
		})
	})
}
