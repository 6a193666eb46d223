//go:build unit

package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/tests/common/builder"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *errs.ValidationError
	require.True(t, errs.As(err, &verr), "expected a validation error, got %v", err)
	out := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		out = append(out, f.Field)
	}
	return out
}

// =============================================================================
// Prepare
// =============================================================================

func TestLedger_Prepare(t *testing.T) {
	t.Run("success: weekday request becomes a priced hold on the requested slot", func(t *testing.T) {
		h := newHarness(t)
		in := builder.NewBookingBuilder().BuildInput()

		res, quote, err := h.ledger.Prepare(in)

		require.NoError(t, err)
		assert.Equal(t, reservation.StatusHeld, res.Status())
		assert.True(t, reservation.IsReference(res.Reference()))
		require.NotNil(t, res.Slot())
		assert.True(t, res.Slot().Start().Equal(builder.Monday.Add(10*time.Hour)))
		assert.True(t, res.Slot().End().Equal(builder.Monday.Add(11*time.Hour+30*time.Minute)))
		require.NotNil(t, res.HoldExpiresAt())
		assert.True(t, res.HoldExpiresAt().Equal(builder.BaseNow.Add(holdWindow)))
		assert.Equal(t, int64(14000), res.TotalPrice().Cents())
		assert.Equal(t, quote.Total, res.TotalPrice())
		assert.Equal(t, "aud", res.Currency())
	})

	t.Run("success: weekend request carries a window and the surcharge, no slot", func(t *testing.T) {
		h := newHarness(t)
		in := builder.NewBookingBuilder().AsWeekendRequest(builder.Saturday, "Morning, before 11").BuildInput()

		res, _, err := h.ledger.Prepare(in)

		require.NoError(t, err)
		assert.Nil(t, res.Slot())
		assert.True(t, res.IsWeekend())
		assert.Equal(t, "Morning, before 11", res.PreferredWindow())
		assert.Equal(t, int64(19000), res.TotalPrice().Cents())
	})

	t.Run("error: every field problem is reported together", func(t *testing.T) {
		h := newHarness(t)
		in := builder.NewBookingBuilder().With(func(b *builder.BookingBuilder) {
			b.Name = ""
			b.Symptoms = "  "
			b.AddOns = []string{"gold_plating"}
		}).BuildInput()

		_, _, err := h.ledger.Prepare(in)

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrValidation))
		assert.ElementsMatch(t, []string{"addOns[0]", "details.symptoms", "customer.name"}, fieldNames(t, err))
	})

	t.Run("error: details for another service are rejected", func(t *testing.T) {
		h := newHarness(t)
		in := builder.NewBookingBuilder().BuildInput()
		in.Service = pricing.ServicePrePurchaseInspection

		_, _, err := h.ledger.Prepare(in)

		require.Error(t, err)
		assert.Contains(t, fieldNames(t, err), "details")
	})

	t.Run("error: past dates and dates beyond the horizon", func(t *testing.T) {
		h := newHarness(t)
		past := builder.NewBookingBuilder().OnDate(builder.BaseNow.AddDate(0, 0, -3)).BuildInput()
		far := builder.NewBookingBuilder().OnDate(builder.Monday.AddDate(0, 0, 63)).BuildInput()

		_, _, err := h.ledger.Prepare(past)
		assert.Contains(t, fieldNames(t, err), "date")

		_, _, err = h.ledger.Prepare(far)
		assert.Contains(t, fieldNames(t, err), "date")
	})

	t.Run("error: weekday request without a start time", func(t *testing.T) {
		h := newHarness(t)
		in := builder.NewBookingBuilder().AtTime("").BuildInput()

		_, _, err := h.ledger.Prepare(in)

		assert.Equal(t, []string{"time"}, fieldNames(t, err))
	})
}

// =============================================================================
// CreateHeld
// =============================================================================

func TestLedger_CreateHeld(t *testing.T) {
	ctx := context.Background()

	t.Run("success: hold is stored and counted", func(t *testing.T) {
		h := newHarness(t)

		res, err := h.ledger.CreateHeld(ctx, builder.NewBookingBuilder().BuildInput())

		require.NoError(t, err)
		stored := h.reload(t, res)
		assert.Equal(t, reservation.StatusHeld, stored.Status())
		assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.HoldsCreated))
		assert.Equal(t, []string{"2025-03-10"}, h.store.DateLocks(), "capacity is checked under the day's lock")
	})

	t.Run("error: a live hold on an overlapping slot blocks the request", func(t *testing.T) {
		h := newHarness(t)
		h.seed(builder.NewReservationBuilder().AtSlot(10, 30).BuildDomain())

		_, err := h.ledger.CreateHeld(ctx, builder.NewBookingBuilder().AtTime("10:00").BuildInput())

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrSlotUnavailable))
		assert.Len(t, h.store.All(), 1)
	})

	t.Run("error: a confirmed booking blocks the request", func(t *testing.T) {
		h := newHarness(t)
		h.seed(builder.NewReservationBuilder().AtSlot(9, 0).WithStatus(reservation.StatusConfirmed).BuildDomain())

		_, err := h.ledger.CreateHeld(ctx, builder.NewBookingBuilder().AtTime("10:00").BuildInput())

		assert.True(t, errs.Is(err, errs.ErrSlotUnavailable))
	})

	t.Run("success: back-to-back slots do not overlap", func(t *testing.T) {
		h := newHarness(t)
		h.seed(builder.NewReservationBuilder().AtSlot(11, 30).WithStatus(reservation.StatusConfirmed).BuildDomain())

		_, err := h.ledger.CreateHeld(ctx, builder.NewBookingBuilder().AtTime("10:00").BuildInput())

		assert.NoError(t, err)
	})

	t.Run("success: a lapsed hold frees its slot and is expired on the way", func(t *testing.T) {
		h := newHarness(t)
		lapsed := h.seed(builder.NewReservationBuilder().With(func(b *builder.ReservationBuilder) {
			expired := builder.BaseNow.Add(-time.Minute)
			b.HoldExpiresAt = &expired
		}).BuildDomain())

		res, err := h.ledger.CreateHeld(ctx, builder.NewBookingBuilder().BuildInput())

		require.NoError(t, err)
		assert.Equal(t, reservation.StatusExpired, h.reload(t, lapsed).Status())
		assert.Equal(t, reservation.StatusHeld, h.reload(t, res).Status())
		assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.HoldsExpired))
	})

	t.Run("success: expired and cancelled records never block", func(t *testing.T) {
		h := newHarness(t)
		h.seed(builder.NewReservationBuilder().WithStatus(reservation.StatusExpired).BuildDomain())
		h.seed(builder.NewReservationBuilder().With(func(b *builder.ReservationBuilder) {
			b.ID = uuid.New()
			b.Reference = "MM-CANCELD2"
		}).WithStatus(reservation.StatusCancelled).BuildDomain())

		_, err := h.ledger.CreateHeld(ctx, builder.NewBookingBuilder().BuildInput())

		assert.NoError(t, err)
	})

	t.Run("error: daily limit reached", func(t *testing.T) {
		h := newHarness(t)
		for i, hour := range []int{9, 11, 13, 15} {
			h.seed(builder.NewReservationBuilder().With(func(b *builder.ReservationBuilder) {
				b.ID = uuid.New()
				b.Reference = "MM-FULLDAY" + string(rune('2'+i))
			}).AtSlot(hour, 0).WithStatus(reservation.StatusConfirmed).BuildDomain())
		}

		_, err := h.ledger.CreateHeld(ctx, builder.NewBookingBuilder().AtTime("10:30").BuildInput())

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrSlotUnavailable))
		assert.Contains(t, err.Error(), "daily booking limit")
	})

	t.Run("success: weekend requests skip slot checks", func(t *testing.T) {
		h := newHarness(t)

		res, err := h.ledger.CreateHeld(ctx, builder.NewBookingBuilder().AsWeekendRequest(builder.Saturday, "Afternoon").BuildInput())

		require.NoError(t, err)
		assert.Nil(t, h.reload(t, res).Slot())
		assert.Empty(t, h.store.DateLocks())
	})
}

func TestLedger_CreateHeld_ConcurrentRequestsForOneSlot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	const attempts = 20

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := h.ledger.CreateHeld(ctx, builder.NewBookingBuilder().AtTime("10:00").BuildInput())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errs.Is(err, errs.ErrSlotUnavailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)

	live := 0
	for _, res := range h.store.All() {
		if res.Occupies(h.clock.Now()) {
			live++
		}
	}
	assert.Equal(t, 1, live)
}

// =============================================================================
// Confirm
// =============================================================================

func TestLedger_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("success: weekday hold is confirmed once", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(builder.NewReservationBuilder().WithSession("cs_1").BuildDomain())

		first, err := h.ledger.Confirm(ctx, res.ID(), "pi_1")
		require.NoError(t, err)
		assert.True(t, first.Transitioned)
		assert.Equal(t, reservation.StatusConfirmed, first.Reservation.Status())

		stored := h.reload(t, res)
		assert.Equal(t, "pi_1", stored.PaymentReference())
		assert.Nil(t, stored.HoldExpiresAt())

		again, err := h.ledger.Confirm(ctx, res.ID(), "pi_1")
		require.NoError(t, err)
		assert.False(t, again.Transitioned)
		assert.Equal(t, reservation.StatusConfirmed, again.Reservation.Status())
	})

	t.Run("success: weekend request waits for approval", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(builder.NewReservationBuilder().AsWeekendRequest("Morning").BuildDomain())

		result, err := h.ledger.Confirm(ctx, res.ID(), "pi_2")

		require.NoError(t, err)
		assert.Equal(t, reservation.StatusPendingWeekendApproval, result.Reservation.Status())
	})

	t.Run("success: an add-on that needs approval also waits", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(builder.NewReservationBuilder().With(func(b *builder.ReservationBuilder) {
			b.AddOns = []pricing.AddOnID{"after_hours_callout"}
		}).BuildDomain())

		result, err := h.ledger.Confirm(ctx, res.ID(), "pi_3")

		require.NoError(t, err)
		assert.Equal(t, reservation.StatusPendingWeekendApproval, result.Reservation.Status())
	})

	t.Run("error: a lapsed hold is expired instead of confirmed", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(builder.NewReservationBuilder().BuildDomain())
		h.clock.Add(holdWindow + time.Second)

		_, err := h.ledger.Confirm(ctx, res.ID(), "pi_4")

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrAlreadyExpired))
		assert.True(t, errs.Is(err, errs.ErrAlreadyTerminal))
		assert.Equal(t, reservation.StatusExpired, h.reload(t, res).Status())
	})

	t.Run("success: payment exactly at the deadline still confirms", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(builder.NewReservationBuilder().BuildDomain())
		h.clock.Add(holdWindow)

		result, err := h.ledger.Confirm(ctx, res.ID(), "pi_5")

		require.NoError(t, err)
		assert.Equal(t, reservation.StatusConfirmed, result.Reservation.Status())
	})

	t.Run("error: cancelled reservation", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(builder.NewReservationBuilder().WithStatus(reservation.StatusCancelled).BuildDomain())

		_, err := h.ledger.Confirm(ctx, res.ID(), "pi_6")

		assert.True(t, errs.Is(err, errs.ErrAlreadyCancelled))
		assert.Equal(t, reservation.StatusCancelled, h.reload(t, res).Status())
	})

	t.Run("error: unknown reservation", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.ledger.Confirm(ctx, uuid.New(), "pi_7")

		assert.True(t, errs.Is(err, errs.ErrNotFound))
	})
}

// =============================================================================
// ExpireStaleHolds
// =============================================================================

func TestLedger_ExpireStaleHolds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	lapsedA := h.seed(builder.NewReservationBuilder().AtSlot(9, 0).BuildDomain())
	lapsedB := h.seed(builder.NewReservationBuilder().With(func(b *builder.ReservationBuilder) {
		b.ID = uuid.New()
		b.Reference = "MM-LAPSEDBB"
	}).AtSlot(13, 0).BuildDomain())
	confirmed := h.seed(builder.NewReservationBuilder().With(func(b *builder.ReservationBuilder) {
		b.ID = uuid.New()
		b.Reference = "MM-CNFRMDCC"
	}).AtSlot(11, 0).WithStatus(reservation.StatusConfirmed).BuildDomain())

	h.clock.Add(holdWindow + time.Minute)
	fresh := h.seed(builder.NewReservationBuilder().With(func(b *builder.ReservationBuilder) {
		b.ID = uuid.New()
		b.Reference = "MM-FRESHDDD"
		expires := h.clock.Now().Add(holdWindow)
		b.HoldExpiresAt = &expires
	}).AtSlot(15, 0).BuildDomain())

	n, err := h.ledger.ExpireStaleHolds(ctx, h.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.Equal(t, reservation.StatusExpired, h.reload(t, lapsedA).Status())
	assert.Equal(t, reservation.StatusExpired, h.reload(t, lapsedB).Status())
	assert.Equal(t, reservation.StatusConfirmed, h.reload(t, confirmed).Status())
	assert.Equal(t, reservation.StatusHeld, h.reload(t, fresh).Status())

	again, err := h.ledger.ExpireStaleHolds(ctx, h.clock.Now())
	require.NoError(t, err)
	assert.Zero(t, again)
}

// =============================================================================
// Cancel / CancelIfHeld
// =============================================================================

func TestLedger_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("success: confirmed booking is cancelled with a reason", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(builder.NewReservationBuilder().WithStatus(reservation.StatusConfirmed).BuildDomain())

		out, err := h.ledger.Cancel(ctx, res.ID(), "  customer rang to cancel ")

		require.NoError(t, err)
		assert.Equal(t, reservation.StatusCancelled, out.Status())
		assert.Equal(t, "customer rang to cancel", h.reload(t, res).CancelReason())
	})

	t.Run("error: cancelling twice", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(builder.NewReservationBuilder().WithStatus(reservation.StatusCancelled).BuildDomain())

		_, err := h.ledger.Cancel(ctx, res.ID(), "again")

		assert.True(t, errs.Is(err, errs.ErrAlreadyCancelled))
	})

	t.Run("error: expired hold", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(builder.NewReservationBuilder().WithStatus(reservation.StatusExpired).BuildDomain())

		_, err := h.ledger.Cancel(ctx, res.ID(), "late")

		assert.True(t, errs.Is(err, errs.ErrAlreadyExpired))
	})
}

func TestLedger_CancelIfHeld(t *testing.T) {
	ctx := context.Background()

	t.Run("success: held reservation is released", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(builder.NewReservationBuilder().BuildDomain())

		cancelled, err := h.ledger.CancelIfHeld(ctx, res.ID(), "checkout session expired")

		require.NoError(t, err)
		assert.True(t, cancelled)
		assert.Equal(t, reservation.StatusCancelled, h.reload(t, res).Status())
	})

	t.Run("success: paid reservation is left alone", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(builder.NewReservationBuilder().WithStatus(reservation.StatusConfirmed).BuildDomain())

		cancelled, err := h.ledger.CancelIfHeld(ctx, res.ID(), "checkout session expired")

		require.NoError(t, err)
		assert.False(t, cancelled)
		assert.Equal(t, reservation.StatusConfirmed, h.reload(t, res).Status())
	})
}

// =============================================================================
// Approve
// =============================================================================

func TestLedger_Approve(t *testing.T) {
	ctx := context.Background()
	saturdayTen := builder.Saturday.Add(10 * time.Hour)

	pendingWeekend := func() *builder.ReservationBuilder {
		return builder.NewReservationBuilder().AsWeekendRequest("Morning").WithStatus(reservation.StatusPendingWeekendApproval)
	}

	t.Run("success: weekend request is confirmed with a pinned slot", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(pendingWeekend().BuildDomain())

		out, err := h.ledger.Approve(ctx, res.ID(), &saturdayTen)

		require.NoError(t, err)
		assert.Equal(t, reservation.StatusConfirmed, out.Status())
		stored := h.reload(t, res)
		require.NotNil(t, stored.Slot())
		assert.True(t, stored.Slot().Start().Equal(saturdayTen))
		assert.Equal(t, 90*time.Minute, stored.Slot().Duration())
	})

	t.Run("success: approval without a slot keeps the request open-ended", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(pendingWeekend().BuildDomain())

		out, err := h.ledger.Approve(ctx, res.ID(), nil)

		require.NoError(t, err)
		assert.Equal(t, reservation.StatusConfirmed, out.Status())
		assert.Nil(t, h.reload(t, res).Slot())
	})

	t.Run("error: pinned slot overlaps another booking", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(pendingWeekend().BuildDomain())
		taken := saturdayTen.Add(-30 * time.Minute)
		h.seed(builder.NewReservationBuilder().With(func(b *builder.ReservationBuilder) {
			b.ID = uuid.New()
			b.Reference = "MM-TAKENSAT"
			b.Date = builder.Saturday
			b.SlotStart = &taken
		}).WithStatus(reservation.StatusConfirmed).BuildDomain())

		_, err := h.ledger.Approve(ctx, res.ID(), &saturdayTen)

		assert.True(t, errs.Is(err, errs.ErrSlotUnavailable))
		assert.Equal(t, reservation.StatusPendingWeekendApproval, h.reload(t, res).Status())
	})

	t.Run("error: pinned slot in the past", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(pendingWeekend().BuildDomain())
		past := builder.BaseNow.Add(-time.Hour)

		_, err := h.ledger.Approve(ctx, res.ID(), &past)

		assert.Equal(t, []string{"slotStart"}, fieldNames(t, err))
	})

	t.Run("error: a hold awaiting payment cannot be approved", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(builder.NewReservationBuilder().BuildDomain())

		_, err := h.ledger.Approve(ctx, res.ID(), nil)

		assert.True(t, errs.Is(err, errs.ErrInvalidTransition))
	})

	t.Run("error: cancelled request", func(t *testing.T) {
		h := newHarness(t)
		res := h.seed(pendingWeekend().WithStatus(reservation.StatusCancelled).BuildDomain())

		_, err := h.ledger.Approve(ctx, res.ID(), nil)

		assert.True(t, errs.Is(err, errs.ErrAlreadyCancelled))
	})
}
