package request

import (
	"strings"
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/pkg/ptr"
	"mechanic-booking/internal/usecase/queries"
)

type ApproveRequest struct {
	// SlotStart pins the visit time of a weekend request.
	SlotStart *time.Time `json:"slotStart,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type ListReservationsQuery struct {
	Status string `form:"status"`
	From   string `form:"from"`
	To     string `form:"to"`
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
}

func (q *ListReservationsQuery) ToFilter(cal *calendar.Calendar) (queries.ListFilter, error) {
	filter := queries.ListFilter{Limit: q.Limit}
	verr := errs.NewValidationError()

	if s := strings.TrimSpace(q.Status); s != "" {
		status, err := reservation.ParseStatus(strings.ToUpper(s))
		if err != nil {
			verr.Add("status", "unknown status")
		} else {
			filter.Status = ptr.Of(status)
		}
	}
	if q.From != "" {
		from, err := cal.ParseDate(q.From)
		if err != nil {
			verr.Add("from", "must be formatted as YYYY-MM-DD")
		} else {
			filter.DateFrom = ptr.Of(from)
		}
	}
	if q.To != "" {
		to, err := cal.ParseDate(q.To)
		if err != nil {
			verr.Add("to", "must be formatted as YYYY-MM-DD")
		} else {
			filter.DateTo = ptr.Of(to)
		}
	}
	if q.Cursor != "" {
		filter.After = &queries.Cursor{After: q.Cursor}
	}
	return filter, verr.OrNil()
}
