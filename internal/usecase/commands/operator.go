package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/operator.go -package=commandsmock

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"
	"time"

	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/pkg/jwt"
	"mechanic-booking/internal/pkg/password"

	"github.com/google/uuid"
)

var ErrTokenGeneration = errs.New("token generation failed")

type OperatorCredentials struct {
	Username     string
	PasswordHash string
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
}

type OperatorCommands interface {
	Login(ctx context.Context, username, plainPassword string) (*LoginResult, error)
	Approve(ctx context.Context, id uuid.UUID, slotStart *time.Time) (*reservation.Reservation, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*reservation.Reservation, error)
}

type operatorCommandsImpl struct {
	ledger      *Ledger
	notifier    Notifier
	jwtService  *jwt.Service
	credentials OperatorCredentials
	logger      *slog.Logger
}

func NewOperatorCommands(
	ledger *Ledger,
	notifier Notifier,
	jwtService *jwt.Service,
	credentials OperatorCredentials,
	logger *slog.Logger,
) OperatorCommands {
	return &operatorCommandsImpl{
		ledger:      ledger,
		notifier:    notifier,
		jwtService:  jwtService,
		credentials: credentials,
		logger:      logger,
	}
}

func (o *operatorCommandsImpl) Login(_ context.Context, username, plainPassword string) (*LoginResult, error) {
	usernameOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(o.credentials.Username)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password
	passwordErr := password.Verify(o.credentials.PasswordHash, plainPassword)
	if !usernameOK || passwordErr != nil {
		return nil, errs.ErrInvalidCredentials
	}

	token, expiresAt, err := o.jwtService.GenerateToken(o.credentials.Username)
	if err != nil {
		return nil, errs.Mark(err, ErrTokenGeneration)
	}
	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt}, nil
}

func (o *operatorCommandsImpl) Approve(ctx context.Context, id uuid.UUID, slotStart *time.Time) (*reservation.Reservation, error) {
	res, err := o.ledger.Approve(ctx, id, slotStart)
	if err != nil {
		return nil, err
	}
	o.logger.Info("reservation approved", slog.String("reference", res.Reference()))
	notifyReservation(ctx, o.notifier, o.logger, res)
	return res, nil
}

func (o *operatorCommandsImpl) Cancel(ctx context.Context, id uuid.UUID, reason string) (*reservation.Reservation, error) {
	res, err := o.ledger.Cancel(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	o.logger.Info("reservation cancelled by operator",
		slog.String("reference", res.Reference()), slog.String("reason", res.CancelReason()))
	notifyReservation(ctx, o.notifier, o.logger, res)
	return res, nil
}
