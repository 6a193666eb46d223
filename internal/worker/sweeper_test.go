//go:build unit

package worker_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/worker"
	"mechanic-booking/tests/common/builder"
	workermock "mechanic-booking/tests/mock/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestSweeper_Sweep(t *testing.T) {
	t.Run("success: passes the clock's now", func(t *testing.T) {
		expirer := workermock.NewMockHoldExpirer(gomock.NewController(t))
		expirer.EXPECT().ExpireStaleHolds(gomock.Any(), builder.BaseNow).Return(int64(2), nil)

		worker.NewSweeper(expirer, clock.NewMockClock(builder.BaseNow), time.Minute, discard).Sweep(context.Background())
	})

	t.Run("success: failure is swallowed for the next tick", func(t *testing.T) {
		expirer := workermock.NewMockHoldExpirer(gomock.NewController(t))
		expirer.EXPECT().ExpireStaleHolds(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("connection refused"))

		assert.NotPanics(t, func() {
			worker.NewSweeper(expirer, clock.NewMockClock(builder.BaseNow), time.Minute, discard).Sweep(context.Background())
		})
	})
}

func TestSweeper_StartStop(t *testing.T) {
	t.Run("success: sweeps immediately then on every tick", func(t *testing.T) {
		expirer := workermock.NewMockHoldExpirer(gomock.NewController(t))
		swept := make(chan struct{}, 8)
		expirer.EXPECT().ExpireStaleHolds(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, time.Time) (int64, error) {
				select {
				case swept <- struct{}{}:
				default:
				}
				return 0, nil
			}).MinTimes(2)

		s := worker.NewSweeper(expirer, clock.NewMockClock(builder.BaseNow), 10*time.Millisecond, discard)
		s.Start()

		for i := 0; i < 2; i++ {
			select {
			case <-swept:
			case <-time.After(2 * time.Second):
				t.Fatalf("sweep %d did not run", i+1)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, s.Stop(ctx))
		// a second Stop is harmless
		require.NoError(t, s.Stop(ctx))
	})

	t.Run("error: stop gives up when the context ends first", func(t *testing.T) {
		expirer := workermock.NewMockHoldExpirer(gomock.NewController(t))
		release := make(chan struct{})
		expirer.EXPECT().ExpireStaleHolds(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, time.Time) (int64, error) {
				<-release
				return 0, nil
			}).AnyTimes()

		s := worker.NewSweeper(expirer, clock.NewMockClock(builder.BaseNow), time.Hour, discard)
		s.Start()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)

		close(release)
		require.NoError(t, s.Stop(context.Background()))
	})
}
