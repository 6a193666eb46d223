package httperr

import (
	"net/http"

	"mechanic-booking/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// preserves original error for future monitoring
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		err = errs.New(msg)
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

type mapping struct {
	target error
	status int
	msg    string
}

// Order matters: the first matching marker wins.
var mappings = []mapping{
	{errs.ErrNotFound, http.StatusNotFound, "Reservation not found"},
	{errs.ErrSlotUnavailable, http.StatusConflict, "The requested time is no longer available"},
	{errs.ErrAlreadyCancelled, http.StatusConflict, "Reservation already cancelled"},
	{errs.ErrAlreadyExpired, http.StatusConflict, "Reservation hold has expired"},
	{errs.ErrInvalidTransition, http.StatusConflict, "Reservation cannot change to the requested status"},
	{errs.ErrPriceChanged, http.StatusConflict, "Price changed, please request a new quote"},
	{errs.ErrIdempotencyKeyRequired, http.StatusBadRequest, "Idempotency-Key header required"},
	{errs.ErrIdempotencyMismatch, http.StatusUnprocessableEntity, "Idempotency-Key reused with a different request"},
	{errs.ErrIdempotencyInProgress, http.StatusConflict, "Booking request is currently being processed"},
	{errs.ErrCheckoutUnavailable, http.StatusServiceUnavailable, "Payment is temporarily unavailable, please retry"},
	{errs.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password"},
	{errs.ErrSignatureInvalid, http.StatusBadRequest, "Invalid signature"},
	{errs.ErrEventInFlight, http.StatusConflict, "Event is already being processed"},
}

// AbortWithUsecaseError maps the error taxonomy onto HTTP statuses.
// Validation errors carry their field list as detail.
func AbortWithUsecaseError(c *gin.Context, err error) {
	var verr *errs.ValidationError
	if errs.As(err, &verr) {
		AbortWithError(c, http.StatusBadRequest, err, "Validation failed", verr.Fields)
		return
	}
	if errs.Is(err, errs.ErrValidation) {
		AbortWithError(c, http.StatusBadRequest, err, "Validation failed", nil)
		return
	}
	for _, m := range mappings {
		if errs.Is(err, m.target) {
			AbortWithError(c, m.status, err, m.msg, nil)
			return
		}
	}
	AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
}
