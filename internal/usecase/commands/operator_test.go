//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/pkg/jwt"
	"mechanic-booking/internal/usecase/commands"
	"mechanic-booking/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

func (h *harness) operatorCommands(t *testing.T) (commands.OperatorCommands, *jwt.Service) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := jwt.NewService("test-secret", time.Hour, h.clock)
	return commands.NewOperatorCommands(h.ledger, h.notifier, svc, commands.OperatorCredentials{
		Username:     "mechanic",
		PasswordHash: string(hash),
	}, h.logger), svc
}

func TestOperatorCommands_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success: token is issued for the configured operator", func(t *testing.T) {
		h := newHarness(t)
		cmds, svc := h.operatorCommands(t)

		result, err := cmds.Login(ctx, " mechanic ", "correct horse")

		require.NoError(t, err)
		assert.True(t, result.ExpiresAt.Equal(builder.BaseNow.Add(time.Hour)))
		claims, err := svc.ValidateToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "mechanic", claims.Subject)
		assert.Equal(t, jwt.RoleOperator, claims.Role)
	})

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "mechanic", "wrong horse"},
		{"wrong username", "someone", "correct horse"},
		{"empty password", "mechanic", ""},
	}
	for _, tt := range tests {
		t.Run("error: "+tt.name, func(t *testing.T) {
			h := newHarness(t)
			cmds, _ := h.operatorCommands(t)

			result, err := cmds.Login(ctx, tt.username, tt.password)

			assert.Nil(t, result)
			assert.True(t, errs.Is(err, errs.ErrInvalidCredentials))
		})
	}
}

func TestOperatorCommands_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("success: approval notifies the customer", func(t *testing.T) {
		h := newHarness(t)
		cmds, _ := h.operatorCommands(t)
		res := h.seed(builder.NewReservationBuilder().AsWeekendRequest("Morning").
			WithStatus(reservation.StatusPendingWeekendApproval).BuildDomain())
		h.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, got *reservation.Reservation) (commands.NotifyResult, error) {
				assert.Equal(t, reservation.StatusConfirmed, got.Status())
				return commands.NotifyResult{CustomerNotified: true}, nil
			})

		out, err := cmds.Approve(ctx, res.ID(), nil)

		require.NoError(t, err)
		assert.Equal(t, reservation.StatusConfirmed, out.Status())
	})

	t.Run("error: nothing is sent when approval fails", func(t *testing.T) {
		h := newHarness(t)
		cmds, _ := h.operatorCommands(t)
		res := h.seed(builder.NewReservationBuilder().WithStatus(reservation.StatusConfirmed).BuildDomain())

		_, err := cmds.Approve(ctx, res.ID(), nil)

		assert.True(t, errs.Is(err, errs.ErrInvalidTransition))
	})
}

func TestOperatorCommands_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("success: cancellation is recorded and announced", func(t *testing.T) {
		h := newHarness(t)
		cmds, _ := h.operatorCommands(t)
		res := h.seed(builder.NewReservationBuilder().WithStatus(reservation.StatusConfirmed).BuildDomain())
		h.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(commands.NotifyResult{}, errs.New("smtp down"))

		out, err := cmds.Cancel(ctx, res.ID(), "mechanic unwell")

		require.NoError(t, err)
		assert.Equal(t, reservation.StatusCancelled, out.Status())
		assert.Equal(t, "mechanic unwell", h.reload(t, res).CancelReason())
	})

	t.Run("error: already cancelled", func(t *testing.T) {
		h := newHarness(t)
		cmds, _ := h.operatorCommands(t)
		res := h.seed(builder.NewReservationBuilder().WithStatus(reservation.StatusCancelled).BuildDomain())

		_, err := cmds.Cancel(ctx, res.ID(), "again")

		assert.True(t, errs.Is(err, errs.ErrAlreadyCancelled))
	})
}
