//go:build unit

package queries_test

import (
	"context"
	"testing"
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/pkg/catalog"
	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/usecase/availability"
	"mechanic-booking/internal/usecase/queries"
	"mechanic-booking/tests/common/builder"
	"mechanic-booking/tests/common/fakestore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAvailabilityQueries(t *testing.T, store *fakestore.Store) queries.AvailabilityQueries {
	t.Helper()
	clk := clock.NewMockClock(builder.BaseNow)
	cal, err := calendar.New(calendar.Config{
		Location:          builder.Sydney(),
		OpenTime:          calendar.ClockTime{Hour: 9},
		CloseTime:         calendar.ClockTime{Hour: 17},
		LastBookingTime:   calendar.ClockTime{Hour: 15, Minute: 30},
		JobDuration:       90 * time.Minute,
		Granularity:       30 * time.Minute,
		MaxBookingsPerDay: 4,
		HorizonDays:       60,
		WeekendPolicy:     "Weekend visits are by request.",
	}, clk)
	require.NoError(t, err)
	return queries.NewAvailabilityQueries(store.Reservations(), availability.NewChecker(cal, clk), cal, catalog.Default(), "aud")
}

func TestAvailabilityQueries_DaySlots(t *testing.T) {
	ctx := context.Background()

	t.Run("success: weekday slots carry local labels", func(t *testing.T) {
		store := fakestore.New()
		store.Seed(builder.NewReservationBuilder().AtSlot(13, 0).WithStatus(reservation.StatusConfirmed).BuildDomain())

		view, err := newAvailabilityQueries(t, store).DaySlots(ctx, "2025-03-10")

		require.NoError(t, err)
		assert.Equal(t, "2025-03-10", view.Date)
		assert.False(t, view.Weekend)
		assert.Empty(t, view.Policy)
		require.Len(t, view.Slots, 14)
		assert.Equal(t, "09:00", view.Slots[0].Label)
		assert.Equal(t, "15:30", view.Slots[13].Label)

		byLabel := map[string]bool{}
		for _, s := range view.Slots {
			byLabel[s.Label] = s.Available
		}
		assert.True(t, byLabel["11:30"])
		assert.False(t, byLabel["12:00"])
		assert.False(t, byLabel["14:00"])
		assert.True(t, byLabel["14:30"])
	})

	t.Run("success: weekend returns the request policy only", func(t *testing.T) {
		view, err := newAvailabilityQueries(t, fakestore.New()).DaySlots(ctx, "2025-03-08")

		require.NoError(t, err)
		assert.True(t, view.Weekend)
		assert.Equal(t, "Weekend visits are by request.", view.Policy)
		assert.NotNil(t, view.Slots)
		assert.Empty(t, view.Slots)
	})

	t.Run("error: malformed date", func(t *testing.T) {
		_, err := newAvailabilityQueries(t, fakestore.New()).DaySlots(ctx, "10/03/2025")

		assert.True(t, errs.Is(err, errs.ErrValidation))
	})

	t.Run("error: beyond the booking horizon", func(t *testing.T) {
		_, err := newAvailabilityQueries(t, fakestore.New()).DaySlots(ctx, "2025-12-01")

		assert.True(t, errs.Is(err, errs.ErrValidation))
	})
}

func TestAvailabilityQueries_Catalog(t *testing.T) {
	view := newAvailabilityQueries(t, fakestore.New()).Catalog(context.Background())

	assert.Equal(t, "aud", view.Currency)
	assert.Equal(t, int64(5000), view.WeekendSurchargeCents)
	require.Len(t, view.Services, 3)
	require.Len(t, view.AddOns, 4)

	prices := map[string]int64{}
	for _, s := range view.Services {
		prices[s.Type] = s.PriceCents
		assert.Equal(t, 90, s.DurationMinutes)
	}
	assert.Equal(t, map[string]int64{
		"mobile_diagnostic":       14000,
		"pre_purchase_inspection": 18900,
		"general_repair":          5000,
	}, prices)

	for _, a := range view.AddOns {
		assert.Equal(t, a.ID == "after_hours_callout", a.RequiresApproval, a.ID)
	}
}
