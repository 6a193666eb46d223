//go:build unit

package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mechanic-booking/internal/infra"
	"mechanic-booking/internal/infra/repository"
	"mechanic-booking/tests/common/builder"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepository_TryInsert(t *testing.T) {
	ctx := context.Background()
	expires := builder.BaseNow.Add(24 * time.Hour)

	testCases := []struct {
		name        string
		tag         string
		dbErr       error
		wantCreated bool
		wantErr     bool
	}{
		{name: "success: new key claimed", tag: "INSERT 0 1", wantCreated: true},
		{name: "success: existing key left alone", tag: "INSERT 0 0", wantCreated: false},
		{name: "error: database failure", dbErr: errors.New("database connection error"), wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := repository.NewIdempotencyRepository(&mockDBTX{tag: pgconn.NewCommandTag(tc.tag), err: tc.dbErr})

			created, err := repo.TryInsert(ctx, uuid.New(), "POST /api/bookings", "hash", expires)

			if tc.wantErr {
				assert.True(t, infra.IsKind(err, infra.KindDBFailure))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantCreated, created)
		})
	}
}

func TestIdempotencyRepository_MarkCompleted(t *testing.T) {
	ctx := context.Background()

	t.Run("success: processing key completed", func(t *testing.T) {
		repo := repository.NewIdempotencyRepository(&mockDBTX{tag: pgconn.NewCommandTag("UPDATE 1")})

		assert.NoError(t, repo.MarkCompleted(ctx, uuid.New(), uuid.New()))
	})

	t.Run("error: key no longer processing", func(t *testing.T) {
		repo := repository.NewIdempotencyRepository(&mockDBTX{tag: pgconn.NewCommandTag("UPDATE 0")})

		err := repo.MarkCompleted(ctx, uuid.New(), uuid.New())

		assert.True(t, infra.IsKind(err, infra.KindStale))
	})
}

func TestIdempotencyRepository_Get(t *testing.T) {
	repo := repository.NewIdempotencyRepository(&mockDBTX{rowErr: pgx.ErrNoRows})

	_, err := repo.Get(context.Background(), uuid.New())

	assert.True(t, infra.IsKind(err, infra.KindNotFound))
}
