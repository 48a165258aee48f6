package api

import (
	"net/http"

	reqdto "parking-reservation/internal/handler/dto/request"
	resdto "parking-reservation/internal/handler/dto/response"
	"parking-reservation/internal/handler/httperr"
	"parking-reservation/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type PaymentCallbackHandler struct {
	cmds commands.BookingCommands
}

func NewPaymentCallbackHandler(cmds commands.BookingCommands) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{cmds: cmds}
}

// @Summary Payment provider callback
// @Description Apply a late payment result by idempotency key
// @Tags payments
// @Accept json
// @Produce json
// @Param request body reqdto.PaymentCallbackRequest true "Provider result"
// @Success 200 {object} resdto.PaymentCallbackResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /payments/callback [post]
func (h *PaymentCallbackHandler) Handle(c *gin.Context) {
	var req reqdto.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	result, err := req.ToResult()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid payment result", nil)
		return
	}

	view, err := h.cmds.ReconcilePayment(c.Request.Context(), result)
	if err != nil {
		abortWorkflow(c, err, view)
		return
	}
	c.JSON(http.StatusOK, &resdto.PaymentCallbackResponse{Applied: true, Booking: view})
}
