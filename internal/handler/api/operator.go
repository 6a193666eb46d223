package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"mechanic-booking/internal/domain/calendar"
	reqdto "mechanic-booking/internal/handler/dto/request"
	resdto "mechanic-booking/internal/handler/dto/response"
	"mechanic-booking/internal/handler/httperr"
	"mechanic-booking/internal/handler/middleware"
	"mechanic-booking/internal/pkg/config"
	"mechanic-booking/internal/pkg/cookie"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/usecase/commands"
	"mechanic-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OperatorHandler struct {
	cmds      commands.OperatorCommands
	q         queries.ReservationQueries
	calendar  *calendar.Calendar
	cookieCfg config.CookieConfig
}

func NewOperatorHandler(cmds commands.OperatorCommands, q queries.ReservationQueries, cal *calendar.Calendar, cookieCfg config.CookieConfig) *OperatorHandler {
	return &OperatorHandler{cmds: cmds, q: q, calendar: cal, cookieCfg: cookieCfg}
}

// @Summary Operator login
// @Description Issues an access token and sets it as an HttpOnly cookie
// @Tags operator
// @Accept json
// @Produce json
// @Param request body reqdto.LoginRequest true "Credentials"
// @Success 200 {object} resdto.LoginResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Router /api/operator/login [post]
func (h *OperatorHandler) Login(c *gin.Context) {
	var req reqdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	result, err := h.cmds.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		httperr.AbortWithUsecaseError(c, err)
		return
	}

	cookie.SetAccessToken(c, h.cookieCfg, result.AccessToken, time.Until(result.ExpiresAt))
	c.JSON(http.StatusOK, resdto.LoginResponse{AccessToken: result.AccessToken, ExpiresAt: result.ExpiresAt})
}

// @Summary Operator logout
// @Tags operator
// @Success 204 "No Content"
// @Router /api/operator/logout [post]
func (h *OperatorHandler) Logout(c *gin.Context) {
	cookie.ClearAccessToken(c, h.cookieCfg)
	c.Status(http.StatusNoContent)
}

// @Summary List reservations
// @Description Newest first, keyset paginated
// @Tags operator
// @Produce json
// @Param status query string false "Status filter"
// @Param from query string false "Service date from (YYYY-MM-DD)"
// @Param to query string false "Service date to (YYYY-MM-DD)"
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Max items (default 20)"
// @Success 200 {object} resdto.ReservationListResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Router /api/operator/reservations [get]
func (h *OperatorHandler) List(c *gin.Context) {
	var query reqdto.ListReservationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", nil)
		return
	}
	filter, err := query.ToFilter(h.calendar)
	if err != nil {
		httperr.AbortWithUsecaseError(c, err)
		return
	}

	items, next, err := h.q.List(c.Request.Context(), filter)
	if err != nil {
		if errs.Is(err, queries.ErrInvalidCursor) {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid cursor", nil)
			return
		}
		httperr.AbortWithUsecaseError(c, err)
		return
	}
	res, err := resdto.FromOperatorList(items, next)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Get reservation
// @Tags operator
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} resdto.OperatorReservationResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /api/operator/reservations/{id} [get]
func (h *OperatorHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	view, err := h.q.GetByID(c.Request.Context(), id)
	if err != nil {
		httperr.AbortWithUsecaseError(c, err)
		return
	}
	h.respondView(c, view)
}

// @Summary Approve weekend request
// @Description Confirms a paid weekend request, optionally pinning the visit time
// @Tags operator
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body reqdto.ApproveRequest false "Approval"
// @Success 200 {object} resdto.OperatorReservationResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/operator/reservations/{id}/approve [post]
func (h *OperatorHandler) Approve(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req reqdto.ApproveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
			return
		}
	}

	res, err := h.cmds.Approve(c.Request.Context(), id, req.SlotStart)
	if err != nil {
		httperr.AbortWithUsecaseError(c, err)
		return
	}
	h.logAction(c, "approve", id)
	h.respondView(c, queries.NewOperatorReservationView(res))
}

// @Summary Cancel reservation
// @Tags operator
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body reqdto.CancelRequest true "Cancellation"
// @Success 200 {object} resdto.OperatorReservationResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/operator/reservations/{id}/cancel [post]
func (h *OperatorHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req reqdto.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	res, err := h.cmds.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		httperr.AbortWithUsecaseError(c, err)
		return
	}
	h.logAction(c, "cancel", id)
	h.respondView(c, queries.NewOperatorReservationView(res))
}

// @Summary Reconciliation alerts
// @Description Payments that arrived after the hold was released
// @Tags operator
// @Produce json
// @Param limit query int false "Max items (default 20)"
// @Success 200 {array} resdto.ReconciliationAlertResponse
// @Router /api/operator/reconciliations [get]
func (h *OperatorHandler) Reconciliations(c *gin.Context) {
	limit := queries.DefaultListLimit
	if v := c.Query("limit"); v != "" {
		if iv, e := strconv.Atoi(v); e == nil {
			limit = queries.ValidateLimit(iv)
		}
	}
	alerts, err := h.q.ListReconciliationAlerts(c.Request.Context(), limit)
	if err != nil {
		httperr.AbortWithUsecaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromAlerts(alerts))
}

func (h *OperatorHandler) respondView(c *gin.Context, view *queries.OperatorReservationView) {
	res, err := resdto.FromOperatorView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *OperatorHandler) logAction(c *gin.Context, action string, id uuid.UUID) {
	operator, _ := middleware.GetOperator(c)
	slog.Info("operator action",
		slog.String("action", action),
		slog.String("operator", operator),
		slog.String("reservation_id", id.String()),
		slog.String("request_id", middleware.GetRequestID(c)),
	)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}
