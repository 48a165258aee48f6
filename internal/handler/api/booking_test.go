//go:build unit

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"parking-reservation/internal/domain/booking"
	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/handler/api"
	resdto "parking-reservation/internal/handler/dto/response"
	"parking-reservation/internal/pkg/errs"
	"parking-reservation/internal/usecase/commands"
	"parking-reservation/internal/usecase/queries"
	"parking-reservation/tests/common/builder"
	"parking-reservation/tests/common/httptest"
	commandsmock "parking-reservation/tests/mock/commands"
	queriesmock "parking-reservation/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingHandlerTestSuite struct {
	suite.Suite
	router            *gin.Engine
	mockCtrl          *gomock.Controller
	mockCommands      *commandsmock.MockBookingCommands
	mockConfirmations *queriesmock.MockConfirmationQueries
	handler           *api.BookingHandler
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockBookingCommands(s.mockCtrl)
	s.mockConfirmations = queriesmock.NewMockConfirmationQueries(s.mockCtrl)
	s.handler = api.NewBookingHandler(s.mockCommands, s.mockConfirmations)

	s.router.POST("/bookings", s.handler.Start)
	s.router.GET("/bookings/:id", s.handler.Get)
	s.router.PUT("/bookings/:id/facility", s.handler.SelectFacility)
	s.router.PUT("/bookings/:id/duration", s.handler.SetDuration)
	s.router.PUT("/bookings/:id/start-time", s.handler.SetStartTime)
	s.router.POST("/bookings/:id/submit", s.handler.Submit)
	s.router.POST("/bookings/:id/payment", s.handler.SubmitPayment)
	s.router.POST("/bookings/:id/cancel", s.handler.Cancel)
	s.router.GET("/bookings/:id/confirmation", s.handler.Confirmation)
	s.router.GET("/confirmations", s.handler.ListConfirmations)
}

func (s *BookingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

func (s *BookingHandlerTestSuite) detailView(body httptest.ErrorBody) queries.BookingView {
	s.Require().NotEmpty(body.Detail, "detail should carry the booking projection")
	var v queries.BookingView
	s.Require().NoError(json.Unmarshal(body.Detail, &v))
	return v
}

// ================================================================================
// TestStart
// ================================================================================

func (s *BookingHandlerTestSuite) TestStart() {
	view := builder.NewBookingBuilder().BuildView(booking.StateDraft)

	s.Run("success: empty body starts a Draft", func() {
		s.mockCommands.EXPECT().StartBooking(gomock.Any(), commands.StartBookingInput{}).Return(view, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/bookings", nil)

		var got queries.BookingView
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &got)
		s.Equal(view.ID, got.ID)
		s.Equal("Draft", got.State)
	})

	s.Run("success: facility and start time are passed through", func() {
		startAt := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
		s.mockCommands.EXPECT().StartBooking(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, in commands.StartBookingInput) (*queries.BookingView, error) {
				s.Equal(facility.ID("cbd-parking-complex"), in.FacilityID)
				s.Require().NotNil(in.StartAt)
				s.True(startAt.Equal(*in.StartAt))
				return view, nil
			})

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/bookings",
			map[string]any{"facility_id": "cbd-parking-complex", "start_at": startAt.Format(time.RFC3339)})
		s.Equal(http.StatusCreated, rec.Code, rec.Body.String())
	})

	s.Run("error: malformed body", func() {
		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, "/bookings", `{"facility_id":`, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
	})

	s.Run("error: start time in the past", func() {
		s.mockCommands.EXPECT().StartBooking(gomock.Any(), gomock.Any()).Return(nil, errs.ErrInvalidStartTime)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/bookings", map[string]any{"start_at": "2020-01-01T00:00:00Z"})
		body := httptest.AssertErrorKind(s.T(), rec, http.StatusBadRequest, "InvalidStartTime")
		s.Empty(body.Detail)
	})
}

// ================================================================================
// TestGet
// ================================================================================

func (s *BookingHandlerTestSuite) TestGet() {
	view := builder.NewBookingBuilder().BuildView(booking.StateAwaitingPaymentMethod)

	s.Run("success", func() {
		s.mockCommands.EXPECT().CurrentState(gomock.Any(), view.ID).Return(view, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/"+view.ID.String(), nil)

		var got queries.BookingView
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.Equal("AwaitingPaymentMethod", got.State)
		s.Equal(int64(18000), got.CostMinor)
	})

	s.Run("error: invalid id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/not-a-uuid", nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid booking id")
	})

	s.Run("error: unknown booking", func() {
		id := uuid.New()
		s.mockCommands.EXPECT().CurrentState(gomock.Any(), id).
			Return(nil, errs.Wrapf(errs.ErrBookingNotFound, "booking %s", id))

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/"+id.String(), nil)
		body := httptest.AssertErrorKind(s.T(), rec, http.StatusNotFound, "BookingNotFound")
		s.Equal("The booking does not exist.", body.Error.Message)
	})
}

// ================================================================================
// TestDraftEdits
// ================================================================================

func (s *BookingHandlerTestSuite) TestDraftEdits() {
	view := builder.NewBookingBuilder().BuildView(booking.StateDraft)
	base := "/bookings/" + view.ID.String()

	s.Run("select facility: capacity exhausted returns the projection", func() {
		rejected := *view
		rejected.FacilityID = ""
		rejected.Error = &queries.ErrorView{Kind: "CapacityExhausted"}
		s.mockCommands.EXPECT().SelectFacility(gomock.Any(), view.ID, facility.ID("westlands-secure-parking")).
			Return(&rejected, errs.ErrCapacityExhausted)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, base+"/facility",
			map[string]any{"facility_id": "westlands-secure-parking"})
		body := httptest.AssertErrorKind(s.T(), rec, http.StatusConflict, "CapacityExhausted")
		detail := s.detailView(body)
		s.Equal("Draft", detail.State)
		s.Empty(detail.FacilityID)
	})

	s.Run("select facility: missing field", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, base+"/facility", map[string]any{})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
	})

	durationCases := []struct {
		name       string
		body       map[string]any
		callWith   *float64
		mockErr    error
		expectCode int
		expectKind string
	}{
		{name: "whole hours", body: map[string]any{"hours": 4}, callWith: ptr(4), expectCode: http.StatusOK},
		{name: "zero reaches the workflow", body: map[string]any{"hours": 0}, callWith: ptr(0), mockErr: errs.ErrInvalidDuration, expectCode: http.StatusBadRequest, expectKind: "InvalidDuration"},
		{name: "fraction reaches the workflow", body: map[string]any{"hours": 1.5}, callWith: ptr(1.5), mockErr: errs.ErrInvalidDuration, expectCode: http.StatusBadRequest, expectKind: "InvalidDuration"},
		{name: "missing hours", body: map[string]any{}, expectCode: http.StatusBadRequest},
		{name: "hours as text", body: map[string]any{"hours": "three"}, expectCode: http.StatusBadRequest},
	}
	for _, tc := range durationCases {
		s.Run("set duration: "+tc.name, func() {
			if tc.callWith != nil {
				s.mockCommands.EXPECT().SetDuration(gomock.Any(), view.ID, *tc.callWith).Return(view, tc.mockErr)
			}

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, base+"/duration", tc.body)
			s.Equal(tc.expectCode, rec.Code, rec.Body.String())
			if tc.expectKind != "" {
				httptest.AssertErrorKind(s.T(), rec, tc.expectCode, tc.expectKind)
			}
		})
	}

	s.Run("set start time", func() {
		startAt := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
		s.mockCommands.EXPECT().SetStartTime(gomock.Any(), view.ID, gomock.Any()).Return(view, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, base+"/start-time",
			map[string]any{"start_at": startAt.Format(time.RFC3339)})
		s.Equal(http.StatusOK, rec.Code, rec.Body.String())
	})

	s.Run("set start time: missing field", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, base+"/start-time", map[string]any{})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

// ================================================================================
// TestPayment
// ================================================================================

func (s *BookingHandlerTestSuite) TestPayment() {
	bb := builder.NewBookingBuilder()
	id := uuid.New()
	path := "/bookings/" + id.String() + "/payment"
	req := map[string]any{"method": "mpesa", "contact": "0712345678"}
	in := commands.SubmitPaymentInput{Method: "mpesa", Contact: "0712345678"}

	s.Run("success: confirmed", func() {
		view := bb.BuildView(booking.StateConfirmed)
		view.PaymentRef = "MP1"
		s.mockCommands.EXPECT().SubmitPayment(gomock.Any(), id, in).Return(view, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, path, req)

		var got queries.BookingView
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.Equal("Confirmed", got.State)
		s.Equal("MP1", got.PaymentRef)
	})

	cases := []struct {
		name       string
		state      booking.State
		err        error
		expectCode int
		expectKind string
	}{
		{"declined", booking.StatePaymentFailed, errs.Wrap(errs.ErrPaymentDeclined, "insufficient funds"), http.StatusPaymentRequired, "PaymentDeclined"},
		{"timed out", booking.StatePaymentFailed, errs.ErrPaymentTimeout, http.StatusGatewayTimeout, "PaymentTimeout"},
		{"attempts exhausted", booking.StateCancelled, errs.ErrPaymentTimeout, http.StatusGatewayTimeout, "PaymentTimeout"},
		{"price changed", booking.StateAwaitingPaymentMethod, errs.ErrPriceChanged, http.StatusConflict, "PriceChanged"},
		{"invalid contact", booking.StateAwaitingPaymentMethod, errs.ErrInvalidContact, http.StatusBadRequest, "InvalidContact"},
		{"invalid method", booking.StateAwaitingPaymentMethod, errs.ErrInvalidPayMethod, http.StatusBadRequest, "InvalidPaymentMethod"},
		{"terminal booking", booking.StateConfirmed, errs.ErrInvalidState, http.StatusConflict, "InvalidState"},
	}
	for _, tc := range cases {
		s.Run("error: "+tc.name, func() {
			view := bb.BuildView(tc.state)
			s.mockCommands.EXPECT().SubmitPayment(gomock.Any(), id, in).Return(view, tc.err)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, path, req)
			body := httptest.AssertErrorKind(s.T(), rec, tc.expectCode, tc.expectKind)
			s.Equal(tc.state.String(), s.detailView(body).State)
		})
	}

	s.Run("error: internal failure hides the cause", func() {
		s.mockCommands.EXPECT().SubmitPayment(gomock.Any(), id, in).Return(nil, errors.New("redis: connection refused"))

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, path, req)
		body := httptest.AssertErrorKind(s.T(), rec, http.StatusInternalServerError, "")
		s.Equal("Internal server error", body.Error.Message)
		s.NotContains(rec.Body.String(), "redis")
	})
}

// ================================================================================
// TestSubmitAndCancel
// ================================================================================

func (s *BookingHandlerTestSuite) TestSubmitAndCancel() {
	bb := builder.NewBookingBuilder()
	id := uuid.New()

	s.Run("submit holds a unit", func() {
		s.mockCommands.EXPECT().SubmitBooking(gomock.Any(), id).Return(bb.BuildView(booking.StateAwaitingPaymentMethod), nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/bookings/"+id.String()+"/submit", nil)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("submit on a full facility", func() {
		s.mockCommands.EXPECT().SubmitBooking(gomock.Any(), id).Return(bb.BuildView(booking.StateDraft), errs.ErrCapacityExhausted)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/bookings/"+id.String()+"/submit", nil)
		httptest.AssertErrorKind(s.T(), rec, http.StatusConflict, "CapacityExhausted")
	})

	s.Run("cancel while payment is in flight", func() {
		s.mockCommands.EXPECT().CancelBooking(gomock.Any(), id).Return(bb.BuildView(booking.StatePaymentInFlight), errs.ErrInvalidState)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/bookings/"+id.String()+"/cancel", nil)
		body := httptest.AssertErrorKind(s.T(), rec, http.StatusConflict, "InvalidState")
		s.Equal("PaymentInFlight", s.detailView(body).State)
	})
}

// ================================================================================
// TestConfirmations
// ================================================================================

func (s *BookingHandlerTestSuite) TestConfirmations() {
	id := uuid.New()
	view := &queries.ConfirmationView{
		BookingID:  id,
		FacilityID: "cbd-parking-complex",
		Hours:      3,
		CostMinor:  18000,
		Cost:       "180.00",
		Currency:   "Ksh",
		PaymentRef: "MP1",
	}

	s.Run("get", func() {
		s.mockConfirmations.EXPECT().Get(gomock.Any(), id).Return(view, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/"+id.String()+"/confirmation", nil)

		var got queries.ConfirmationView
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.Equal("MP1", got.PaymentRef)
	})

	s.Run("get: not confirmed", func() {
		s.mockConfirmations.EXPECT().Get(gomock.Any(), id).Return(nil, errs.ErrBookingNotFound)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/"+id.String()+"/confirmation", nil)
		httptest.AssertErrorKind(s.T(), rec, http.StatusNotFound, "BookingNotFound")
	})

	s.Run("list", func() {
		s.mockConfirmations.EXPECT().List(gomock.Any()).Return([]*queries.ConfirmationView{view}, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/confirmations", nil)

		var got resdto.ConfirmationListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.Equal(1, got.Total)
		s.Equal(id, got.Confirmations[0].BookingID)
	})

	s.Run("list: empty ledger is an empty array", func() {
		s.mockConfirmations.EXPECT().List(gomock.Any()).Return(nil, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/confirmations", nil)
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"confirmations":[],"total":0}`, rec.Body.String())
	})
}

func ptr(f float64) *float64 { return &f }
