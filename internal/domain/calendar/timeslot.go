package calendar

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTimeSlot = errors.New("slot start must be before slot end")

// TimeSlot is the half-open interval [start, end).
type TimeSlot struct {
	start time.Time
	end   time.Time
}

func NewTimeSlot(start, end time.Time) (TimeSlot, error) {
	if !start.Before(end) {
		return TimeSlot{}, ErrInvalidTimeSlot
	}
	return TimeSlot{start: start, end: end}, nil
}

func (ts TimeSlot) Start() time.Time {
	return ts.start
}

func (ts TimeSlot) End() time.Time {
	return ts.end
}

func (ts TimeSlot) Duration() time.Duration {
	return ts.end.Sub(ts.start)
}

func (ts TimeSlot) IsZero() bool {
	return ts.start.IsZero() && ts.end.IsZero()
}

// Overlaps treats touching intervals as disjoint.
func (ts TimeSlot) Overlaps(other TimeSlot) bool {
	return ts.start.Before(other.end) && other.start.Before(ts.end)
}

func (ts TimeSlot) Equal(other TimeSlot) bool {
	return ts.start.Equal(other.start) && ts.end.Equal(other.end)
}

func (ts TimeSlot) ToTstzrange() string {
	return fmt.Sprintf("[%s,%s)", ts.start.Format(time.RFC3339), ts.end.Format(time.RFC3339))
}

func (ts TimeSlot) String() string {
	return ts.ToTstzrange()
}
