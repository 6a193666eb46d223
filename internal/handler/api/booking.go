package api

import (
	"net/http"
	"strconv"

	"mechanic-booking/internal/domain/calendar"
	reqdto "mechanic-booking/internal/handler/dto/request"
	resdto "mechanic-booking/internal/handler/dto/response"
	"mechanic-booking/internal/handler/httperr"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/usecase/commands"
	"mechanic-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
)

type BookingHandler struct {
	cmds     commands.BookingCommands
	q        queries.ReservationQueries
	calendar *calendar.Calendar
	currency string
}

func NewBookingHandler(cmds commands.BookingCommands, q queries.ReservationQueries, cal *calendar.Calendar, currency string) *BookingHandler {
	return &BookingHandler{cmds: cmds, q: q, calendar: cal, currency: currency}
}

// @Summary Submit booking
// @Description Hold a slot and open a checkout session. Replays return the original result.
// @Tags bookings
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key (UUID)"
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.BookingResponse
// @Success 200 {object} resdto.BookingResponse "replayed"
// @Failure 400 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/bookings [post]
func (h *BookingHandler) Submit(c *gin.Context) {
	key, err := getIdempotencyKey(c)
	if err != nil {
		httperr.AbortWithUsecaseError(c, err)
		return
	}

	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request", nil)
		return
	}

	in, err := req.ToInput(h.calendar)
	if err != nil {
		httperr.AbortWithUsecaseError(c, err)
		return
	}

	result, err := h.cmds.Submit(c.Request.Context(), in, key)
	if err != nil {
		httperr.AbortWithUsecaseError(c, err)
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.Header(replayedHeader, strconv.FormatBool(result.IsReplayed))
	c.Header("Location", "/api/bookings/"+result.Reservation.Reference())
	c.JSON(status, resdto.FromSubmitResult(result))
}

// @Summary Quote
// @Description Price a service and add-ons without holding a slot
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body reqdto.QuoteRequest true "Quote request"
// @Success 200 {object} resdto.QuoteResponse
// @Failure 400 {object} httperr.Response
// @Router /api/quotes [post]
func (h *BookingHandler) Quote(c *gin.Context) {
	var req reqdto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	in, err := req.ToInput(h.calendar)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid date", nil)
		return
	}
	quote, err := h.cmds.Quote(c.Request.Context(), in)
	if err != nil {
		httperr.AbortWithUsecaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromQuote(quote, h.currency))
}

// @Summary Get booking
// @Description Customer-facing booking status by reference
// @Tags bookings
// @Produce json
// @Param reference path string true "Booking reference"
// @Success 200 {object} resdto.ReservationResponse
// @Failure 404 {object} httperr.Response
// @Router /api/bookings/{reference} [get]
func (h *BookingHandler) GetByReference(c *gin.Context) {
	view, err := h.q.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		httperr.AbortWithUsecaseError(c, err)
		return
	}
	res, err := resdto.FromReservationView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

func getIdempotencyKey(c *gin.Context) (uuid.UUID, error) {
	keyStr := c.GetHeader(idempotencyKeyHeader)
	if keyStr == "" {
		return uuid.Nil, errs.ErrIdempotencyKeyRequired
	}
	key, err := uuid.Parse(keyStr)
	if err != nil {
		return uuid.Nil, errs.NewValidationError(errs.FieldError{Field: idempotencyKeyHeader, Message: "must be a UUID"})
	}
	return key, nil
}
