package reservation

type Status string

const (
	StatusHeld                   Status = "HELD"
	StatusConfirmed              Status = "CONFIRMED"
	StatusPendingWeekendApproval Status = "PENDING_WEEKEND_APPROVAL"
	StatusExpired                Status = "EXPIRED"
	StatusCancelled              Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusHeld, StatusConfirmed, StatusPendingWeekendApproval, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsClosed reports statuses no transition leaves.
func (s Status) IsClosed() bool {
	return s == StatusExpired || s == StatusCancelled
}

func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
