//go:build unit

package api_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"parking-reservation/internal/domain/booking"
	"parking-reservation/internal/domain/payment"
	"parking-reservation/internal/handler/api"
	resdto "parking-reservation/internal/handler/dto/response"
	"parking-reservation/internal/pkg/errs"
	"parking-reservation/internal/usecase/commands"
	"parking-reservation/internal/usecase/queries"
	"parking-reservation/tests/common/builder"
	"parking-reservation/tests/common/httptest"
	"parking-reservation/tests/common/testutil"
	commandsmock "parking-reservation/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type PaymentCallbackTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockBookingCommands
}

func (s *PaymentCallbackTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockBookingCommands(s.mockCtrl)
	s.router.POST("/payments/callback", api.NewPaymentCallbackHandler(s.mockCommands).Handle)
}

func TestPaymentCallbackSuite(t *testing.T) {
	suite.Run(t, new(PaymentCallbackTestSuite))
}

type callbackBody struct {
	IdempotencyKey string `json:"idempotencyKey"`
	Status         string `json:"status"`
	Reference      string `json:"reference"`
	Reason         string `json:"reason,omitempty"`
	AmountMinor    int64  `json:"amountMinor"`
}

func (s *PaymentCallbackTestSuite) TestHandle() {
	key := uuid.New()
	valid := callbackBody{IdempotencyKey: key.String(), Status: "succeeded", Reference: "MP42", AmountMinor: 18000}

	s.Run("success: late success confirms", func() {
		view := builder.NewBookingBuilder().BuildView(booking.StateConfirmed)
		view.ID = key
		view.PaymentRef = "MP42"
		s.mockCommands.EXPECT().ReconcilePayment(gomock.Any(), commands.PaymentResult{
			Key:         key,
			Outcome:     payment.Succeeded("MP42"),
			AmountMinor: 18000,
		}).Return(view, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/payments/callback", valid)

		var got resdto.PaymentCallbackResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.True(got.Applied)
		s.Require().NotNil(got.Booking)
		s.Equal("Confirmed", got.Booking.State)
	})

	s.Run("success: unknown failure reason maps to declined", func() {
		s.mockCommands.EXPECT().ReconcilePayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, r commands.PaymentResult) (*queries.BookingView, error) {
				s.Equal(payment.ReasonDeclined, r.Outcome.Reason)
				return builder.NewBookingBuilder().BuildView(booking.StatePaymentFailed), nil
			})

		body := testutil.DtoMap(s.T(), valid, testutil.Field("status", "failed"), testutil.Field("reference", nil), testutil.Field("reason", "CardExpired"))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/payments/callback", body)
		s.Equal(http.StatusOK, rec.Code, rec.Body.String())
	})

	invalid := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing key", testutil.Field("idempotencyKey", nil)},
		{"key is not a uuid", testutil.Field("idempotencyKey", "booking-1")},
		{"missing status", testutil.Field("status", nil)},
		{"unknown status", testutil.Field("status", "pending")},
		{"success without reference", testutil.Field("reference", nil)},
		{"negative amount", testutil.Field("amountMinor", -1)},
		{"reference too long", testutil.Field("reference", strings.Repeat("x", 65))},
	}
	for _, tc := range invalid {
		s.Run("error: "+tc.name, func() {
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/payments/callback", testutil.DtoMap(s.T(), valid, tc.mutate))
			s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	s.Run("error: booking already cancelled", func() {
		view := builder.NewBookingBuilder().BuildView(booking.StateCancelled)
		s.mockCommands.EXPECT().ReconcilePayment(gomock.Any(), gomock.Any()).Return(view, errs.ErrInvalidState)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/payments/callback", valid)
		body := httptest.AssertErrorKind(s.T(), rec, http.StatusConflict, "InvalidState")
		s.NotEmpty(body.Detail)
	})

	s.Run("error: unknown booking", func() {
		s.mockCommands.EXPECT().ReconcilePayment(gomock.Any(), gomock.Any()).Return(nil, errs.ErrBookingNotFound)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/payments/callback", valid)
		httptest.AssertErrorKind(s.T(), rec, http.StatusNotFound, "BookingNotFound")
	})
}
