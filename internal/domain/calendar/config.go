package calendar

import (
	"errors"
	"time"
)

var (
	ErrMissingLocation     = errors.New("calendar timezone is required")
	ErrInvalidBusinessDay  = errors.New("open time must precede last booking time, which must not pass close time")
	ErrInvalidGranularity  = errors.New("slot granularity must be a positive whole number of minutes")
	ErrInvalidJobDuration  = errors.New("job duration must be positive")
	ErrInvalidBuffer       = errors.New("buffer must not be negative")
	ErrInvalidDailyLimit   = errors.New("max bookings per day must be positive")
	ErrInvalidHorizonRange = errors.New("booking horizon must be positive")
)

// Config is loaded once at startup and never mutated.
type Config struct {
	Location          *time.Location
	OpenTime          ClockTime
	CloseTime         ClockTime
	LastBookingTime   ClockTime
	JobDuration       time.Duration
	Buffer            time.Duration
	Granularity       time.Duration
	MaxBookingsPerDay int
	HorizonDays       int
	WeekendPolicy     string
}

func (c Config) Validate() error {
	switch {
	case c.Location == nil:
		return ErrMissingLocation
	case c.OpenTime.After(c.LastBookingTime),
		c.LastBookingTime.After(c.CloseTime):
		return ErrInvalidBusinessDay
	case c.Granularity <= 0 || c.Granularity%time.Minute != 0:
		return ErrInvalidGranularity
	case c.JobDuration <= 0:
		return ErrInvalidJobDuration
	case c.Buffer < 0:
		return ErrInvalidBuffer
	case c.MaxBookingsPerDay <= 0:
		return ErrInvalidDailyLimit
	case c.HorizonDays <= 0:
		return ErrInvalidHorizonRange
	}
	return nil
}
