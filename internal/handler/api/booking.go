package api

import (
	"net/http"

	"parking-reservation/internal/domain/facility"
	reqdto "parking-reservation/internal/handler/dto/request"
	resdto "parking-reservation/internal/handler/dto/response"
	"parking-reservation/internal/handler/httperr"
	"parking-reservation/internal/usecase/commands"
	"parking-reservation/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	cmds          commands.BookingCommands
	confirmations queries.ConfirmationQueries
}

func NewBookingHandler(cmds commands.BookingCommands, confirmations queries.ConfirmationQueries) *BookingHandler {
	return &BookingHandler{cmds: cmds, confirmations: confirmations}
}

// @Summary Start booking
// @Description Create a Draft booking, optionally with a start time and a facility
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body reqdto.StartBookingRequest false "Start booking request"
// @Success 201 {object} queries.BookingView
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings [post]
func (h *BookingHandler) Start(c *gin.Context) {
	var req reqdto.StartBookingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
			return
		}
	}
	view, err := h.cmds.StartBooking(c.Request.Context(), req.ToInput())
	if err != nil {
		abortWorkflow(c, err, view)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// @Summary Get booking
// @Description Current projection of a booking
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} queries.BookingView
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	h.respond(c)(h.cmds.CurrentState(c.Request.Context(), id))
}

// @Summary Select facility
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body reqdto.SelectFacilityRequest true "Facility"
// @Success 200 {object} queries.BookingView
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/facility [put]
func (h *BookingHandler) SelectFacility(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req reqdto.SelectFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	h.respond(c)(h.cmds.SelectFacility(c.Request.Context(), id, facility.ID(req.FacilityID)))
}

// @Summary Set duration
// @Description Whole hours, at least 1
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body reqdto.SetDurationRequest true "Duration"
// @Success 200 {object} queries.BookingView
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/duration [put]
func (h *BookingHandler) SetDuration(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req reqdto.SetDurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	h.respond(c)(h.cmds.SetDuration(c.Request.Context(), id, *req.Hours))
}

// @Summary Set start time
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body reqdto.SetStartTimeRequest true "Start time"
// @Success 200 {object} queries.BookingView
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/start-time [put]
func (h *BookingHandler) SetStartTime(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req reqdto.SetStartTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	h.respond(c)(h.cmds.SetStartTime(c.Request.Context(), id, req.StartAt))
}

// @Summary Submit booking
// @Description Reserve one unit at the selected facility and wait for a payment method
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} queries.BookingView
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/submit [post]
func (h *BookingHandler) Submit(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	h.respond(c)(h.cmds.SubmitBooking(c.Request.Context(), id))
}

// @Summary Submit payment
// @Description Charge the held booking. Blocks until the gateway answers or the payment timeout passes.
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body reqdto.SubmitPaymentRequest true "Payment method and contact"
// @Success 200 {object} queries.BookingView
// @Failure 400 {object} httperr.Response
// @Failure 402 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 504 {object} httperr.Response
// @Router /bookings/{id}/payment [post]
func (h *BookingHandler) SubmitPayment(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req reqdto.SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	h.respond(c)(h.cmds.SubmitPayment(c.Request.Context(), id, req.ToInput()))
}

// @Summary Cancel booking
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} queries.BookingView
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	h.respond(c)(h.cmds.CancelBooking(c.Request.Context(), id))
}

// @Summary Get confirmation
// @Description Ledger entry of a confirmed booking
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} queries.ConfirmationView
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id}/confirmation [get]
func (h *BookingHandler) Confirmation(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	view, err := h.confirmations.Get(c.Request.Context(), id)
	if err != nil {
		httperr.AbortWithDomainError(c, err, "Confirmation not found", nil)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary List confirmations
// @Description Ledger entries in confirmation order
// @Tags bookings
// @Produce json
// @Success 200 {object} resdto.ConfirmationListResponse
// @Failure 500 {object} httperr.Response
// @Router /confirmations [get]
func (h *BookingHandler) ListConfirmations(c *gin.Context) {
	views, err := h.confirmations.List(c.Request.Context())
	if err != nil {
		httperr.AbortWithDomainError(c, err, "Failed to list confirmations", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromConfirmationViews(views))
}

func (h *BookingHandler) respond(c *gin.Context) func(*queries.BookingView, error) {
	return func(view *queries.BookingView, err error) {
		if err != nil {
			abortWorkflow(c, err, view)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func bookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking id", nil)
		return uuid.Nil, false
	}
	return id, true
}

// abortWorkflow reports a rejected transition together with the booking's
// current projection when there is one.
func abortWorkflow(c *gin.Context, err error, view *queries.BookingView) {
	msg := "Request rejected"
	if ev := queries.NewErrorView(err); ev != nil {
		msg = ev.Message
	}
	var detail any
	if view != nil {
		detail = view
	}
	httperr.AbortWithDomainError(c, err, msg, detail)
}
