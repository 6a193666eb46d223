package api

import (
	"net/http"

	resdto "mechanic-booking/internal/handler/dto/response"
	"mechanic-booking/internal/handler/httperr"
	"mechanic-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	q queries.AvailabilityQueries
}

func NewAvailabilityHandler(q queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{q: q}
}

// @Summary Day availability
// @Description Weekday start times with availability, or the weekend request policy
// @Tags availability
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} httperr.Response
// @Router /api/availability [get]
func (h *AvailabilityHandler) GetDay(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		httperr.AbortWithError(c, http.StatusBadRequest, nil, "date query parameter is required", nil)
		return
	}
	view, err := h.q.DaySlots(c.Request.Context(), date)
	if err != nil {
		httperr.AbortWithUsecaseError(c, err)
		return
	}
	res, err := resdto.FromDayAvailability(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Service catalog
// @Tags availability
// @Produce json
// @Success 200 {object} resdto.CatalogResponse
// @Router /api/catalog [get]
func (h *AvailabilityHandler) GetCatalog(c *gin.Context) {
	res, err := resdto.FromCatalogView(h.q.Catalog(c.Request.Context()))
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}
