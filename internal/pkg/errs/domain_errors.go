package errs

// Booking error taxonomy shared by the domain, usecase and handler layers.
var (
	ErrValidation      = New("validation failed")
	ErrNotFound        = New("reservation not found")
	ErrSlotUnavailable = New("slot unavailable")

	// Both terminal variants carry the ErrAlreadyTerminal mark.
	ErrAlreadyTerminal  = New("reservation already terminal")
	ErrAlreadyCancelled = Mark(New("reservation already cancelled"), ErrAlreadyTerminal)
	ErrAlreadyExpired   = Mark(New("reservation hold already expired"), ErrAlreadyTerminal)

	ErrReconciliationRequired = New("payment received for a reservation that is no longer held")
	ErrInvalidTransition      = New("invalid reservation status transition")
	ErrPriceChanged           = New("quoted price no longer matches the catalog")
	ErrSignatureInvalid       = New("webhook signature verification failed")
	ErrCheckoutUnavailable    = New("checkout session could not be opened")
	ErrEventInFlight          = New("webhook event is already being processed")

	// Idempotency errors
	ErrIdempotencyKeyRequired = New("idempotency key required")
	ErrIdempotencyInProgress  = New("idempotency in progress")
	ErrIdempotencyMismatch    = New("idempotency key reused with a different request")
	ErrIdempotencyCheckFailed = New("idempotency check failed")

	ErrInvalidCredentials      = New("invalid credentials")
	ErrDatabaseOperationFailed = New("database operation failed")
)
