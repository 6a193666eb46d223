//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/config"
	"mechanic-booking/internal/pkg/jwt"

	"github.com/stretchr/testify/require"
)

type JWTHelper struct {
	cfg config.JWTConfig
}

func NewJWTHelper(cfg config.JWTConfig) *JWTHelper {
	return &JWTHelper{cfg: cfg}
}

func (h *JWTHelper) GenerateToken(t *testing.T, operator string) string {
	t.Helper()
	service := jwt.NewService(h.cfg.Secret, h.cfg.Duration, clock.NewRealClock())
	token, _, err := service.GenerateToken(operator)
	require.NoError(t, err)
	return token
}

// CreateExpiredToken signs a token whose lifetime ended an hour ago.
func (h *JWTHelper) CreateExpiredToken(t *testing.T, operator string) string {
	t.Helper()
	past := clock.NewMockClock(time.Now().Add(-h.cfg.Duration - time.Hour))
	service := jwt.NewService(h.cfg.Secret, h.cfg.Duration, past)
	token, _, err := service.GenerateToken(operator)
	require.NoError(t, err)
	return token
}
