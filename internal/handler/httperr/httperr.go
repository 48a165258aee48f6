package httperr

import (
	"net/http"

	"parking-reservation/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
		Kind    string `json:"kind,omitempty"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

var kindStatus = map[string]int{
	"InvalidDuration":      http.StatusBadRequest,
	"InvalidStartTime":     http.StatusBadRequest,
	"InvalidPaymentMethod": http.StatusBadRequest,
	"InvalidContact":       http.StatusBadRequest,
	"BookingNotFound":      http.StatusNotFound,
	"FacilityNotFound":     http.StatusNotFound,
	"CapacityExhausted":    http.StatusConflict,
	"InvalidState":         http.StatusConflict,
	"InvalidHold":          http.StatusConflict,
	"PriceChanged":         http.StatusConflict,
	"IdempotencyConflict":  http.StatusConflict,
	"AlreadyConfirmed":     http.StatusConflict,
	"PaymentDeclined":      http.StatusPaymentRequired,
	"PaymentTimeout":       http.StatusGatewayTimeout,
}

// StatusOf maps a workflow error to its HTTP status. Errors without a domain
// kind are internal.
func StatusOf(err error) (int, string) {
	kind := errs.KindOf(err)
	if status, ok := kindStatus[kind]; ok {
		return status, kind
	}
	return http.StatusInternalServerError, ""
}

// preserves original error for future monitoring
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}

// AbortWithDomainError answers with the status and kind err carries. Internal
// errors hide their message.
func AbortWithDomainError(c *gin.Context, err error, msg string, detail any) {
	status, kind := StatusOf(err)
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Error.Kind = kind
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}
