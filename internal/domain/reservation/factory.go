package reservation

import (
	"time"

	"mechanic-booking/internal/pkg/clock"
)

type Factory struct {
	Clock      clock.Clock
	HoldWindow time.Duration
	References func() (string, error)
}

func NewFactory(clock clock.Clock, holdWindow time.Duration) *Factory {
	return &Factory{
		Clock:      clock,
		HoldWindow: holdWindow,
		References: NewReference,
	}
}

// CreateHeld stamps a fresh reference and the hold expiry onto a new reservation.
func (f *Factory) CreateHeld(p NewHeldParams) (*Reservation, error) {
	if p.Reference == "" {
		ref, err := f.References()
		if err != nil {
			return nil, err
		}
		p.Reference = ref
	}
	return NewHeld(p, f.Clock.Now(), f.HoldWindow)
}
