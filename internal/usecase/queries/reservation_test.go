//go:build unit

package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/infra"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/usecase/queries"
	"mechanic-booking/tests/common/builder"
	queriesmock "mechanic-booking/tests/mock/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var errDBConnectionLost = errors.New("database connection lost")

const alertTopic = "reconciliation_required"

// =============================================================================
// GetByReference
// =============================================================================

func TestReservationQueries_GetByReference(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name       string
		reference  string
		setupMock  func(*queriesmock.MockReservationReadStore)
		expectErr  error
		assertView func(*testing.T, *queries.ReservationView)
	}{
		{
			name:      "success: held booking shows its checkout link",
			reference: "MM-ABCDEFGH",
			setupMock: func(m *queriesmock.MockReservationReadStore) {
				res := builder.NewReservationBuilder().WithSession("cs_view").BuildDomain()
				m.EXPECT().FindByReference(ctx, "MM-ABCDEFGH").Return(res, nil)
			},
			assertView: func(t *testing.T, v *queries.ReservationView) {
				assert.Equal(t, "HELD", v.Status)
				assert.Equal(t, "mobile_diagnostic", v.Service)
				assert.Equal(t, "2025-03-10", v.Date)
				assert.Equal(t, int64(14000), v.TotalCents)
				assert.Equal(t, "https://checkout.stripe.test/cs_view", v.CheckoutURL)
				require.NotNil(t, v.SlotStart)
				assert.Equal(t, 90*time.Minute, v.SlotEnd.Sub(*v.SlotStart))
				assert.Len(t, v.Breakdown, 1)
			},
		},
		{
			name:      "success: paid booking hides the checkout link",
			reference: "MM-ABCDEFGH",
			setupMock: func(m *queriesmock.MockReservationReadStore) {
				res := builder.NewReservationBuilder().WithSession("cs_paid").WithStatus(reservation.StatusConfirmed).BuildDomain()
				m.EXPECT().FindByReference(ctx, "MM-ABCDEFGH").Return(res, nil)
			},
			assertView: func(t *testing.T, v *queries.ReservationView) {
				assert.Equal(t, "CONFIRMED", v.Status)
				assert.Empty(t, v.CheckoutURL)
				assert.Nil(t, v.HoldExpiresAt)
			},
		},
		{
			name:      "error: malformed reference never reaches the store",
			reference: "'; drop table reservations; --",
			setupMock: func(*queriesmock.MockReservationReadStore) {},
			expectErr: errs.ErrNotFound,
		},
		{
			name:      "error: unknown reference",
			reference: "MM-ZZZZZZZZ",
			setupMock: func(m *queriesmock.MockReservationReadStore) {
				m.EXPECT().FindByReference(ctx, "MM-ZZZZZZZZ").
					Return(nil, infra.NewRepoErr(infra.KindNotFound, "reservation not found"))
			},
			expectErr: errs.ErrNotFound,
		},
		{
			name:      "error: database failure",
			reference: "MM-ABCDEFGH",
			setupMock: func(m *queriesmock.MockReservationReadStore) {
				m.EXPECT().FindByReference(ctx, "MM-ABCDEFGH").
					Return(nil, infra.WrapRepoErr("select reservation", errDBConnectionLost))
			},
			expectErr: errs.ErrDatabaseOperationFailed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := queriesmock.NewMockReservationReadStore(ctrl)
			tc.setupMock(store)
			q := queries.NewReservationQueries(store, alertTopic)

			view, err := q.GetByReference(ctx, tc.reference)

			if tc.expectErr != nil {
				require.Error(t, err)
				assert.True(t, errs.Is(err, tc.expectErr), "expected %v, got %v", tc.expectErr, err)
				assert.Nil(t, view)
				return
			}
			require.NoError(t, err)
			tc.assertView(t, view)
		})
	}
}

// =============================================================================
// GetByID
// =============================================================================

func TestReservationQueries_GetByID(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := queriesmock.NewMockReservationReadStore(ctrl)
	q := queries.NewReservationQueries(store, alertTopic)

	res := builder.NewReservationBuilder().WithStatus(reservation.StatusConfirmed).BuildDomain()
	store.EXPECT().FindByID(ctx, res.ID()).Return(res, nil)

	view, err := q.GetByID(ctx, res.ID())

	require.NoError(t, err)
	assert.Equal(t, res.ID(), view.ID)
	assert.Equal(t, "Sam Lee", view.CustomerName)
	assert.Equal(t, "2015 Mazda 3", view.Vehicle)
	assert.Equal(t, "pi_test_123", view.PaymentReference)
	assert.Equal(t, "Rough idle when cold", view.Details["symptoms"])
}

// =============================================================================
// List
// =============================================================================

func TestReservationQueries_List(t *testing.T) {
	ctx := context.Background()

	page := func(n int) []*reservation.Reservation {
		out := make([]*reservation.Reservation, n)
		for i := range out {
			out[i] = builder.NewReservationBuilder().With(func(b *builder.ReservationBuilder) {
				b.ID = uuid.New()
				b.CreatedAt = builder.BaseNow.Add(-time.Duration(i) * time.Minute)
			}).BuildDomain()
		}
		return out
	}

	t.Run("success: a full page returns a cursor at its last row", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := queriesmock.NewMockReservationReadStore(ctrl)
		rows := page(3)
		store.EXPECT().List(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, q queries.ListQuery) ([]*reservation.Reservation, error) {
				assert.Equal(t, 3, q.Limit, "one extra row is requested")
				assert.Nil(t, q.AfterID)
				return rows, nil
			})

		views, next, err := queries.NewReservationQueries(store, alertTopic).List(ctx, queries.ListFilter{Limit: 2})

		require.NoError(t, err)
		require.Len(t, views, 2)
		require.NotNil(t, next)
		at, id, err := queries.DecodeAfterCursor(next.After)
		require.NoError(t, err)
		assert.Equal(t, rows[1].ID(), id)
		assert.True(t, at.Equal(rows[1].CreatedAt()))
	})

	t.Run("success: the last page has no cursor", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := queriesmock.NewMockReservationReadStore(ctrl)
		store.EXPECT().List(ctx, gomock.Any()).Return(page(1), nil)

		views, next, err := queries.NewReservationQueries(store, alertTopic).List(ctx, queries.ListFilter{Limit: 2})

		require.NoError(t, err)
		assert.Len(t, views, 1)
		assert.Nil(t, next)
	})

	t.Run("success: filters and cursor are passed through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := queriesmock.NewMockReservationReadStore(ctrl)
		status := reservation.StatusPendingWeekendApproval
		from := builder.Saturday
		afterID := uuid.New()
		afterAt := builder.BaseNow.Truncate(time.Microsecond)
		store.EXPECT().List(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, q queries.ListQuery) ([]*reservation.Reservation, error) {
				require.NotNil(t, q.Status)
				assert.Equal(t, status, *q.Status)
				assert.True(t, q.DateFrom.Equal(from))
				assert.Equal(t, afterID, *q.AfterID)
				assert.True(t, q.AfterCreatedAt.Equal(afterAt))
				assert.Equal(t, queries.DefaultListLimit+1, q.Limit)
				return nil, nil
			})

		views, next, err := queries.NewReservationQueries(store, alertTopic).List(ctx, queries.ListFilter{
			Status:   &status,
			DateFrom: &from,
			After:    &queries.Cursor{After: queries.EncodeAfterCursor(afterAt, afterID)},
		})

		require.NoError(t, err)
		assert.Empty(t, views)
		assert.Nil(t, next)
	})

	t.Run("error: corrupt cursor is a validation error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := queriesmock.NewMockReservationReadStore(ctrl)

		_, _, err := queries.NewReservationQueries(store, alertTopic).List(ctx, queries.ListFilter{
			After: &queries.Cursor{After: "garbage"},
		})

		assert.True(t, errs.Is(err, errs.ErrValidation))
	})
}

func TestReservationQueries_ListReconciliationAlerts(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := queriesmock.NewMockReservationReadStore(ctrl)
	alerts := []*queries.ReconciliationAlertView{{ID: uuid.New(), Status: "pending", Payload: []byte(`{}`)}}
	store.EXPECT().ListAlertJobs(ctx, alertTopic, queries.DefaultListLimit).Return(alerts, nil)

	got, err := queries.NewReservationQueries(store, alertTopic).ListReconciliationAlerts(ctx, 0)

	require.NoError(t, err)
	assert.Equal(t, alerts, got)
}
