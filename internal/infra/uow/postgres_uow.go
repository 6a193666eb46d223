package uow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"mechanic-booking/internal/infra/db"
	"mechanic-booking/internal/infra/repository"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/pkg/metrics"
	"mechanic-booking/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATEs worth another attempt: serialization_failure, deadlock_detected.
var retryableStates = map[string]bool{
	"40001": true,
	"40P01": true,
}

var (
	errTransactionBegin   = errs.New("failed to begin transaction")
	errTransactionCommit  = errs.New("failed to commit transaction")
	errMaxRetriesExceeded = errs.New("transaction failed after max retries")
)

// retryPolicy is exponential backoff with up to 20% jitter.
type retryPolicy struct {
	attempts int
	base     time.Duration
}

func (p retryPolicy) wait(attempt int) time.Duration {
	d := p.base << attempt
	return d + time.Duration(jitter(int64(d/5)))
}

type PostgresUoW struct {
	pool    *pgxpool.Pool
	loc     *time.Location
	logger  *slog.Logger
	metrics *metrics.Metrics
	policy  retryPolicy
}

func NewPostgresUoW(pool *pgxpool.Pool, loc *time.Location, m *metrics.Metrics, logger *slog.Logger) shared.UnitOfWork {
	return &PostgresUoW{
		pool:    pool,
		loc:     loc,
		logger:  logger,
		metrics: m,
		policy:  retryPolicy{attempts: 4, base: 100 * time.Millisecond},
	}
}

// Within runs fn at READ COMMITTED. The ledger relies on FOR UPDATE row locks
// and the reservations exclusion constraint rather than SERIALIZABLE.
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

	var err error
	for attempt := range u.policy.attempts {
		if err = u.attempt(ctx, opts, fn); err == nil {
			return nil
		}

		state, retryable := retryableState(err)
		if !retryable {
			return err
		}
		if attempt == u.policy.attempts-1 {
			break
		}
		u.metrics.TxRetries.WithLabelValues(state).Inc()

		wait := u.policy.wait(attempt)
		u.logger.Warn("retrying transaction",
			"attempt", attempt+1,
			"sqlstate", state,
			"wait_ms", wait.Milliseconds())

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	u.logger.Error("transaction failed after max retries", "attempts", u.policy.attempts, "error", err.Error())
	return errs.Mark(err, errMaxRetriesExceeded)
}

func (u *PostgresUoW) Reservations() shared.ReservationRepository {
	return repository.NewReservationRepository(u.pool, u.loc)
}

// attempt is one BEGIN..COMMIT round; the rollback runs before returning so
// retries never hold more than one connection.
func (u *PostgresUoW) attempt(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx shared.Tx) error) error {
	pgxTx, err := u.pool.BeginTx(ctx, opts)
	if err != nil {
		return errs.Mark(err, errTransactionBegin)
	}

	if err = fn(ctx, &pgTx{dbtx: pgxTx, uow: u}); err == nil {
		if err = pgxTx.Commit(ctx); err == nil {
			return nil
		}
		err = errs.Mark(err, errTransactionCommit)
	}

	if rbErr := pgxTx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
		u.logger.Warn("rollback failed", "error", rbErr.Error())
	}
	return err
}

func retryableState(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	return pgErr.Code, retryableStates[pgErr.Code]
}

func jitter(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	// #nosec G115 -- masked to 63 bits
	return int64(binary.BigEndian.Uint64(buf[:])&0x7FFFFFFFFFFFFFFF) % n
}

type pgTx struct {
	dbtx db.DBTX
	uow  *PostgresUoW

	reservationRepo  shared.ReservationRepository
	idempotencyRepo  shared.IdempotencyRepository
	notificationRepo shared.NotificationRepository
}

func (t *pgTx) Reservations() shared.ReservationRepository {
	if t.reservationRepo == nil {
		t.reservationRepo = repository.NewReservationRepository(t.dbtx, t.uow.loc)
	}
	return t.reservationRepo
}

func (t *pgTx) Idempotency() shared.IdempotencyRepository {
	if t.idempotencyRepo == nil {
		t.idempotencyRepo = repository.NewIdempotencyRepository(t.dbtx)
	}
	return t.idempotencyRepo
}

func (t *pgTx) Notifications() shared.NotificationRepository {
	if t.notificationRepo == nil {
		t.notificationRepo = repository.NewNotificationRepository(t.dbtx)
	}
	return t.notificationRepo
}
