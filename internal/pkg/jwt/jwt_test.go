//go:build unit

package jwt_test

import (
	"testing"
	"time"

	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/jwt"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_GenerateAndValidate(t *testing.T) {
	now := time.Date(2025, 3, 7, 8, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(now)
	svc := jwt.NewService("secret", time.Hour, clk)

	token, expiresAt, err := svc.GenerateToken("mechanic")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	t.Run("success: fresh token", func(t *testing.T) {
		claims, err := svc.ValidateToken(token)

		require.NoError(t, err)
		assert.Equal(t, "mechanic", claims.Subject)
		assert.Equal(t, jwt.RoleOperator, claims.Role)
	})

	t.Run("error: expired token", func(t *testing.T) {
		later := jwt.NewService("secret", time.Hour, clock.NewMockClock(now.Add(2*time.Hour)))

		_, err := later.ValidateToken(token)

		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("error: different secret", func(t *testing.T) {
		other := jwt.NewService("other", time.Hour, clk)

		_, err := other.ValidateToken(token)

		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("error: token without the operator role", func(t *testing.T) {
		claims := jwt.Claims{
			Role: "customer",
			RegisteredClaims: gojwt.RegisteredClaims{
				Issuer:    "mechanic-booking",
				Subject:   "mechanic",
				ExpiresAt: gojwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
		forged, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(forged)

		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("error: garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")

		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}
