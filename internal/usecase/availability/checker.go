package availability

import (
	"context"
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/pkg/clock"
)

// OverlapReader is the slice of the reservation store the checker needs.
// Transaction-bound and pool-bound repositories both satisfy it.
type OverlapReader interface {
	ListLiveOverlapping(ctx context.Context, slot calendar.TimeSlot, now time.Time) ([]*reservation.Reservation, error)
	CountLiveOnDate(ctx context.Context, date time.Time, now time.Time) (int, error)
}

type SlotAvailability struct {
	Slot      calendar.TimeSlot
	Available bool
}

type Checker struct {
	calendar *calendar.Calendar
	clock    clock.Clock
}

func NewChecker(cal *calendar.Calendar, clk clock.Clock) *Checker {
	return &Checker{
		calendar: cal,
		clock:    clk,
	}
}

// IsSlotFree reports whether no live reservation overlaps slot. Lapsed holds
// never block, whether or not the sweeper has marked them yet.
func (c *Checker) IsSlotFree(ctx context.Context, reader OverlapReader, slot calendar.TimeSlot) (bool, error) {
	now := c.clock.Now()
	existing, err := reader.ListLiveOverlapping(ctx, slot, now)
	if err != nil {
		return false, err
	}
	for _, res := range existing {
		if res.Occupies(now) && res.Slot().Overlaps(slot) {
			return false, nil
		}
	}
	return true, nil
}

// HasCapacity reports whether the daily booking limit still has room.
func (c *Checker) HasCapacity(ctx context.Context, reader OverlapReader, date time.Time) (bool, error) {
	count, err := reader.CountLiveOnDate(ctx, c.calendar.DateOf(date), c.clock.Now())
	if err != nil {
		return false, err
	}
	return count < c.calendar.Config().MaxBookingsPerDay, nil
}

// DaySlots annotates every bookable start on date. Starts already in the past
// are reported unavailable.
func (c *Checker) DaySlots(ctx context.Context, reader OverlapReader, date time.Time) ([]SlotAvailability, error) {
	day := c.calendar.DateOf(date)
	if c.calendar.IsWeekend(day) {
		return []SlotAvailability{}, nil
	}
	now := c.clock.Now()

	count, err := reader.CountLiveOnDate(ctx, day, now)
	if err != nil {
		return nil, err
	}
	slots := c.calendar.AvailableSlots(day, count)
	if len(slots) == 0 {
		return []SlotAvailability{}, nil
	}

	bounds := c.calendar.DayBounds(day)
	busy, err := reader.ListLiveOverlapping(ctx, bounds, now)
	if err != nil {
		return nil, err
	}

	out := make([]SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		available := slot.Start().After(now)
		for _, res := range busy {
			if !available {
				break
			}
			if res.Occupies(now) && res.Slot().Overlaps(slot) {
				available = false
			}
		}
		out = append(out, SlotAvailability{Slot: slot, Available: available})
	}
	return out, nil
}
