//go:build unit

package calendar_test

import (
	"testing"
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sydney(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)
	return loc
}

func newCalendar(t *testing.T, now time.Time) (*calendar.Calendar, *clock.MockClock) {
	t.Helper()
	clk := clock.NewMockClock(now)
	cal, err := calendar.New(calendar.Config{
		Location:          now.Location(),
		OpenTime:          calendar.ClockTime{Hour: 9},
		CloseTime:         calendar.ClockTime{Hour: 17},
		LastBookingTime:   calendar.ClockTime{Hour: 15, Minute: 30},
		JobDuration:       90 * time.Minute,
		Granularity:       30 * time.Minute,
		MaxBookingsPerDay: 4,
		HorizonDays:       60,
	}, clk)
	require.NoError(t, err)
	return cal, clk
}

func fields(result calendar.ValidationResult) []string {
	out := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		out = append(out, e.Field)
	}
	return out
}

// =============================================================================
// AvailableSlots
// =============================================================================

func TestCalendar_AvailableSlots(t *testing.T) {
	loc := sydney(t)
	cal, _ := newCalendar(t, time.Date(2025, 3, 7, 8, 0, 0, 0, loc))
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)

	t.Run("success: weekday enumerates open to last booking inclusive", func(t *testing.T) {
		slots := cal.AvailableSlots(monday, 0)

		require.Len(t, slots, 14)
		assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, loc), slots[0].Start())
		assert.Equal(t, time.Date(2025, 3, 10, 10, 30, 0, 0, loc), slots[0].End())
		assert.Equal(t, time.Date(2025, 3, 10, 15, 30, 0, 0, loc), slots[len(slots)-1].Start())
		for i := 1; i < len(slots); i++ {
			assert.Equal(t, 30*time.Minute, slots[i].Start().Sub(slots[i-1].Start()))
		}
	})

	t.Run("success: weekend returns no slots", func(t *testing.T) {
		saturday := time.Date(2025, 3, 15, 0, 0, 0, 0, loc)
		sunday := time.Date(2025, 3, 16, 0, 0, 0, 0, loc)

		assert.Empty(t, cal.AvailableSlots(saturday, 0))
		assert.Empty(t, cal.AvailableSlots(sunday, 0))
	})

	t.Run("success: daily limit reached returns no slots", func(t *testing.T) {
		assert.Empty(t, cal.AvailableSlots(monday, 4))
		assert.NotEmpty(t, cal.AvailableSlots(monday, 3))
	})

	t.Run("success: buffer extends the occupied interval", func(t *testing.T) {
		clk := clock.NewMockClock(time.Date(2025, 3, 7, 8, 0, 0, 0, loc))
		cfg := cal.Config()
		cfg.Buffer = 30 * time.Minute
		buffered, err := calendar.New(cfg, clk)
		require.NoError(t, err)

		slots := buffered.AvailableSlots(monday, 0)
		require.NotEmpty(t, slots)
		assert.Equal(t, 2*time.Hour, slots[0].Duration())
	})
}

func TestCalendar_DayBoundsAcrossDST(t *testing.T) {
	loc := sydney(t)
	cal, _ := newCalendar(t, time.Date(2025, 4, 1, 8, 0, 0, 0, loc))

	// Daylight saving ends on the first Sunday of April in Sydney.
	bounds := cal.DayBounds(time.Date(2025, 4, 6, 12, 0, 0, 0, loc))
	assert.Equal(t, 25*time.Hour, bounds.Duration())
}

// =============================================================================
// Validate
// =============================================================================

func TestCalendar_Validate(t *testing.T) {
	loc := sydney(t)
	now := time.Date(2025, 3, 10, 10, 15, 0, 0, loc)
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	tomorrow := time.Date(2025, 3, 11, 0, 0, 0, 0, loc)
	saturday := time.Date(2025, 3, 15, 0, 0, 0, 0, loc)
	at := func(h, m int) *calendar.ClockTime { return &calendar.ClockTime{Hour: h, Minute: m} }

	testCases := []struct {
		name            string
		date            time.Time
		time            *calendar.ClockTime
		weekend         bool
		preferredWindow string
		expectFields    []string
	}{
		{name: "success: weekday within hours", date: tomorrow, time: at(9, 0)},
		{name: "success: last booking time is inclusive", date: tomorrow, time: at(15, 30)},
		{name: "success: later today", date: today, time: at(11, 0)},
		{name: "success: weekend with preferred window", date: saturday, weekend: true, preferredWindow: "Morning"},
		{name: "error: date in the past", date: today.AddDate(0, 0, -1), time: at(10, 0), expectFields: []string{"date"}},
		{name: "error: earlier today", date: today, time: at(10, 0), expectFields: []string{"time"}},
		{name: "error: before opening", date: tomorrow, time: at(8, 30), expectFields: []string{"time"}},
		{name: "error: after last booking", date: tomorrow, time: at(16, 0), expectFields: []string{"time"}},
		{name: "error: off the slot grid", date: tomorrow, time: at(9, 10), expectFields: []string{"time"}},
		{name: "error: weekday without time", date: tomorrow, expectFields: []string{"time"}},
		{name: "error: weekend date without weekend flag", date: saturday, time: at(10, 0), expectFields: []string{"date"}},
		{name: "error: weekend flag on weekday", date: tomorrow, weekend: true, preferredWindow: "Morning", expectFields: []string{"weekend"}},
		{name: "error: weekend without preferred window", date: saturday, weekend: true, preferredWindow: "  ", expectFields: []string{"preferredWindow"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cal, _ := newCalendar(t, now)

			result := cal.Validate(tc.date, tc.time, tc.weekend, tc.preferredWindow)

			if len(tc.expectFields) == 0 {
				assert.True(t, result.Valid(), "unexpected errors: %v", result.Errors)
				assert.NoError(t, result.Err())
				return
			}
			assert.Equal(t, tc.expectFields, fields(result))
			assert.True(t, errs.Is(result.Err(), errs.ErrValidation))
		})
	}
}

func TestCalendar_ValidateDateRange(t *testing.T) {
	loc := sydney(t)
	cal, _ := newCalendar(t, time.Date(2025, 3, 10, 10, 0, 0, 0, loc))

	assert.True(t, cal.ValidateDateRange(time.Date(2025, 5, 9, 0, 0, 0, 0, loc)).Valid())
	assert.Equal(t, []string{"date"}, fields(cal.ValidateDateRange(time.Date(2025, 5, 10, 0, 0, 0, 0, loc))))
}

func TestCalendar_ParseDate(t *testing.T) {
	loc := sydney(t)
	cal, _ := newCalendar(t, time.Date(2025, 3, 10, 10, 0, 0, 0, loc))

	d, err := cal.ParseDate("2025-03-15")
	require.NoError(t, err)
	assert.True(t, cal.IsWeekend(d))
	assert.Equal(t, loc, d.Location())

	_, err = cal.ParseDate("15/03/2025")
	assert.True(t, errs.Is(err, errs.ErrValidation))
}

func TestClockTime_Decode(t *testing.T) {
	var ct calendar.ClockTime
	require.NoError(t, ct.Decode("15:30"))
	assert.Equal(t, calendar.ClockTime{Hour: 15, Minute: 30}, ct)
	assert.Equal(t, "15:30", ct.String())
	assert.ErrorIs(t, ct.Decode("3pm"), calendar.ErrInvalidClockTime)
}

func TestTimeSlot_Overlaps(t *testing.T) {
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	mk := func(startMin, endMin int) calendar.TimeSlot {
		s, err := calendar.NewTimeSlot(base.Add(time.Duration(startMin)*time.Minute), base.Add(time.Duration(endMin)*time.Minute))
		require.NoError(t, err)
		return s
	}

	booked := mk(0, 90)
	assert.True(t, booked.Overlaps(mk(30, 120)), "10:30-12:00 overlaps 10:00-11:30")
	assert.False(t, booked.Overlaps(mk(90, 180)), "touching intervals do not overlap")
	assert.False(t, booked.Overlaps(mk(-90, 0)))
	assert.True(t, booked.Overlaps(mk(10, 20)))

	_, err := calendar.NewTimeSlot(base, base)
	assert.ErrorIs(t, err, calendar.ErrInvalidTimeSlot)
}
