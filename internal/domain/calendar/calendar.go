package calendar

import (
	"fmt"
	"strings"
	"time"

	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/errs"
)

const DateLayout = "2006-01-02"

type ValidationResult struct {
	Errors []errs.FieldError
}

func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Err converts the result to an *errs.ValidationError, or nil when valid.
func (r ValidationResult) Err() error {
	return errs.NewValidationError(r.Errors...).OrNil()
}

func (r *ValidationResult) add(field, message string) {
	r.Errors = append(r.Errors, errs.FieldError{Field: field, Message: message})
}

// Calendar answers business-hours questions for a single technician.
// Every method is pure apart from reading the injected clock.
type Calendar struct {
	cfg   Config
	clock clock.Clock
}

func New(cfg Config, clk clock.Clock) (*Calendar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Calendar{cfg: cfg, clock: clk}, nil
}

func (c *Calendar) Config() Config {
	return c.cfg
}

func (c *Calendar) Location() *time.Location {
	return c.cfg.Location
}

// DateOf truncates t to midnight of its calendar day in the business timezone.
func (c *Calendar) DateOf(t time.Time) time.Time {
	y, m, d := t.In(c.cfg.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.cfg.Location)
}

func (c *Calendar) Today() time.Time {
	return c.DateOf(c.clock.Now())
}

func (c *Calendar) ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), c.cfg.Location)
	if err != nil {
		return time.Time{}, errs.NewValidationError(errs.FieldError{Field: "date", Message: "must be formatted as YYYY-MM-DD"})
	}
	return t, nil
}

func (c *Calendar) IsWeekend(date time.Time) bool {
	switch date.In(c.cfg.Location).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// DayBounds spans local midnight to the next local midnight, so DST days are 23 or 25 hours.
func (c *Calendar) DayBounds(date time.Time) TimeSlot {
	start := c.DateOf(date)
	y, m, d := start.Date()
	end := time.Date(y, m, d+1, 0, 0, 0, 0, c.cfg.Location)
	return TimeSlot{start: start, end: end}
}

// SlotFor returns the occupied interval for a job starting at the given clock time,
// covering the job itself and the travel buffer after it.
func (c *Calendar) SlotFor(date time.Time, at ClockTime, duration time.Duration) (TimeSlot, error) {
	if duration <= 0 {
		duration = c.cfg.JobDuration
	}
	start := at.On(date, c.cfg.Location)
	return NewTimeSlot(start, start.Add(duration+c.cfg.Buffer))
}

// StartTimes enumerates weekday start times from open to last booking inclusive.
func (c *Calendar) StartTimes() []ClockTime {
	var out []ClockTime
	for t := c.cfg.OpenTime; !t.After(c.cfg.LastBookingTime); t = t.Add(c.cfg.Granularity) {
		out = append(out, t)
	}
	return out
}

func (c *Calendar) AvailableSlots(date time.Time, existingCount int) []TimeSlot {
	if c.IsWeekend(date) || existingCount >= c.cfg.MaxBookingsPerDay {
		return []TimeSlot{}
	}
	starts := c.StartTimes()
	slots := make([]TimeSlot, 0, len(starts))
	for _, at := range starts {
		slot, err := c.SlotFor(date, at, c.cfg.JobDuration)
		if err != nil {
			continue
		}
		slots = append(slots, slot)
	}
	return slots
}

// Validate checks a requested date and start time. Weekend requests skip the
// time checks and need a preferred-window note instead.
func (c *Calendar) Validate(date time.Time, at *ClockTime, weekend bool, preferredWindow string) ValidationResult {
	var result ValidationResult
	now := c.clock.Now()
	day := c.DateOf(date)

	if day.Before(c.DateOf(now)) {
		result.add("date", "must not be in the past")
		return result
	}

	isWeekend := c.IsWeekend(day)
	switch {
	case isWeekend && !weekend:
		result.add("date", "weekend visits are by request only and need a preferred window")
		return result
	case !isWeekend && weekend:
		result.add("weekend", "the selected date is not a weekend")
		return result
	}

	if isWeekend {
		if strings.TrimSpace(preferredWindow) == "" {
			result.add("preferredWindow", "is required for weekend requests")
		}
		return result
	}

	if at == nil {
		result.add("time", "is required")
		return result
	}
	if at.Before(c.cfg.OpenTime) || at.After(c.cfg.LastBookingTime) {
		result.add("time", fmt.Sprintf("must be between %s and %s", c.cfg.OpenTime, c.cfg.LastBookingTime))
		return result
	}
	granularity := int(c.cfg.Granularity / time.Minute)
	if (at.Minutes()-c.cfg.OpenTime.Minutes())%granularity != 0 {
		result.add("time", fmt.Sprintf("must fall on a %d minute boundary", granularity))
		return result
	}
	if !at.On(day, c.cfg.Location).After(now) {
		result.add("time", "must be in the future")
	}
	return result
}

func (c *Calendar) ValidateDateRange(date time.Time) ValidationResult {
	var result ValidationResult
	today := c.Today()
	y, m, d := today.Date()
	last := time.Date(y, m, d+c.cfg.HorizonDays, 0, 0, 0, 0, c.cfg.Location)
	if c.DateOf(date).After(last) {
		result.add("date", fmt.Sprintf("must be within %d days", c.cfg.HorizonDays))
	}
	return result
}
