package calendar

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidClockTime = errors.New("clock time must be HH:MM")

// ClockTime is a wall-clock time of day without a date or zone.
type ClockTime struct {
	Hour   int
	Minute int
}

func ParseClockTime(value string) (ClockTime, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, value)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Decode lets envconfig read HH:MM values.
func (c *ClockTime) Decode(value string) error {
	parsed, err := ParseClockTime(value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) Before(other ClockTime) bool {
	return c.Minutes() < other.Minutes()
}

func (c ClockTime) After(other ClockTime) bool {
	return c.Minutes() > other.Minutes()
}

func (c ClockTime) Add(d time.Duration) ClockTime {
	m := c.Minutes() + int(d/time.Minute)
	return ClockTime{Hour: m / 60, Minute: m % 60}
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On places the clock time on the given date's calendar day in loc.
func (c ClockTime) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, loc)
}
