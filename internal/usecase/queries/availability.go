package queries

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/queries/availability.go -package=queriesmock

import (
	"context"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/usecase/availability"
)

type AvailabilityQueries interface {
	DaySlots(ctx context.Context, date string) (*DayAvailabilityView, error)
	Catalog(ctx context.Context) CatalogView
}

type availabilityQueriesImpl struct {
	reader   availability.OverlapReader
	checker  *availability.Checker
	calendar *calendar.Calendar
	catalog  *pricing.Catalog
	currency string
}

func NewAvailabilityQueries(
	reader availability.OverlapReader,
	checker *availability.Checker,
	cal *calendar.Calendar,
	catalog *pricing.Catalog,
	currency string,
) AvailabilityQueries {
	return &availabilityQueriesImpl{
		reader:   reader,
		checker:  checker,
		calendar: cal,
		catalog:  catalog,
		currency: currency,
	}
}

// DaySlots lists weekday starts with their availability. Weekend days return
// no slots, only the request policy.
func (q *availabilityQueriesImpl) DaySlots(ctx context.Context, date string) (*DayAvailabilityView, error) {
	day, err := q.calendar.ParseDate(date)
	if err != nil {
		return nil, err
	}
	if err := q.calendar.ValidateDateRange(day).Err(); err != nil {
		return nil, err
	}

	view := &DayAvailabilityView{
		Date:    day.Format(calendar.DateLayout),
		Weekend: q.calendar.IsWeekend(day),
		Slots:   []SlotView{},
	}
	if view.Weekend {
		view.Policy = q.calendar.Config().WeekendPolicy
		return view, nil
	}

	slots, err := q.checker.DaySlots(ctx, q.reader, day)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	loc := q.calendar.Location()
	for _, s := range slots {
		view.Slots = append(view.Slots, SlotView{
			Start:     s.Slot.Start(),
			End:       s.Slot.End(),
			Label:     s.Slot.Start().In(loc).Format("15:04"),
			Available: s.Available,
		})
	}
	return view, nil
}

func (q *availabilityQueriesImpl) Catalog(_ context.Context) CatalogView {
	return NewCatalogView(q.catalog, q.currency)
}
