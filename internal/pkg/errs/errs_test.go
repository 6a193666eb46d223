//go:build unit

package errs_test

import (
	"fmt"
	"testing"

	"mechanic-booking/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
)

func TestTerminalMarks(t *testing.T) {
	wrapped := errs.Wrap(errs.ErrAlreadyCancelled, "confirm")

	assert.True(t, errs.Is(wrapped, errs.ErrAlreadyCancelled))
	assert.True(t, errs.Is(wrapped, errs.ErrAlreadyTerminal))
	assert.False(t, errs.Is(wrapped, errs.ErrAlreadyExpired))
	assert.True(t, errs.Is(errs.ErrAlreadyExpired, errs.ErrAlreadyTerminal))
}

func TestValidationError(t *testing.T) {
	t.Run("empty collects to nil", func(t *testing.T) {
		v := errs.NewValidationError()
		assert.NoError(t, v.OrNil())
	})

	t.Run("matches sentinel through wrapping", func(t *testing.T) {
		v := errs.NewValidationError()
		v.Add("time", "must be between 09:00 and 15:30")
		v.Add("customer.email", "is required")

		err := fmt.Errorf("create hold: %w", v.OrNil())

		assert.True(t, errs.Is(err, errs.ErrValidation))
		var got *errs.ValidationError
		assert.True(t, errs.As(err, &got))
		assert.Len(t, got.Fields, 2)
		assert.Contains(t, err.Error(), "customer.email: is required")
	})
}
