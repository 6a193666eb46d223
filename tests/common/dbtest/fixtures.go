//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/infra/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// InsertReservation writes res through the repository, so the exclusion
// constraint applies exactly as it does for the API.
func InsertReservation(t *testing.T, pool *pgxpool.Pool, res *reservation.Reservation) uuid.UUID {
	t.Helper()

	repo := repository.NewReservationRepository(pool, res.RequestedDate().Location())
	err := repo.Insert(context.Background(), res)
	require.NoError(t, err)
	return res.ID()
}

func FindReservation(t *testing.T, pool *pgxpool.Pool, id uuid.UUID, loc *time.Location) *reservation.Reservation {
	t.Helper()

	repo := repository.NewReservationRepository(pool, loc)
	res, err := repo.FindByID(context.Background(), id, false)
	require.NoError(t, err)
	return res
}

func CountJobs(t *testing.T, db DBLike, topic string) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(), "SELECT count(*) FROM notification_jobs WHERE topic = $1", topic).Scan(&n)
	require.NoError(t, err)
	return n
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates every application table, leaving the goose version table alone
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('goose_db_version')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}
