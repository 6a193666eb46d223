//go:build unit || e2e

package fakestore

import (
	"context"
	"sort"
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/infra"
	"mechanic-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type repo struct {
	st *state
}

// blocksConstraint mirrors the partial exclusion constraint: status only, no clock.
func blocksConstraint(r *reservation.Reservation) bool {
	if r.Slot() == nil {
		return false
	}
	switch r.Status() {
	case reservation.StatusHeld, reservation.StatusConfirmed, reservation.StatusPendingWeekendApproval:
		return true
	}
	return false
}

// isLive mirrors the repository's live condition, which does consult the clock.
func isLive(r *reservation.Reservation, now time.Time) bool {
	if r.Slot() == nil {
		return false
	}
	switch r.Status() {
	case reservation.StatusConfirmed, reservation.StatusPendingWeekendApproval:
		return true
	case reservation.StatusHeld:
		exp := r.HoldExpiresAt()
		return exp != nil && !exp.Before(now)
	}
	return false
}

func (r *repo) checkConstraint(candidate *reservation.Reservation) error {
	if !blocksConstraint(candidate) {
		return nil
	}
	for id, other := range r.st.reservations {
		if id == candidate.ID() || !blocksConstraint(other) {
			continue
		}
		if other.Slot().Overlaps(*candidate.Slot()) {
			return infra.NewRepoErr(infra.KindConflict, "reservations_no_overlap")
		}
	}
	return nil
}

func (r *repo) Insert(_ context.Context, res *reservation.Reservation) error {
	if _, exists := r.st.reservations[res.ID()]; exists {
		return infra.NewRepoErr(infra.KindDuplicateKey, "reservation id exists")
	}
	for _, other := range r.st.reservations {
		if other.Reference() == res.Reference() {
			return infra.NewRepoErr(infra.KindDuplicateKey, "reservation reference exists")
		}
	}
	if err := r.checkConstraint(res); err != nil {
		return err
	}
	r.st.reservations[res.ID()] = res.Clone()
	return nil
}

func (r *repo) Update(_ context.Context, res *reservation.Reservation, expected reservation.Status) error {
	stored, ok := r.st.reservations[res.ID()]
	if !ok || stored.Status() != expected {
		return infra.NewRepoErr(infra.KindStale, "reservation status changed concurrently")
	}
	if sid := res.GatewaySessionID(); sid != "" {
		for id, other := range r.st.reservations {
			if id != res.ID() && other.GatewaySessionID() == sid {
				return infra.NewRepoErr(infra.KindDuplicateKey, "gateway session attached twice")
			}
		}
	}
	if err := r.checkConstraint(res); err != nil {
		return err
	}
	r.st.reservations[res.ID()] = res.Clone()
	return nil
}

func (r *repo) FindByID(_ context.Context, id uuid.UUID, _ bool) (*reservation.Reservation, error) {
	if res, ok := r.st.reservations[id]; ok {
		return res.Clone(), nil
	}
	return nil, infra.NewRepoErr(infra.KindNotFound, "reservation not found")
}

func (r *repo) FindBySessionID(_ context.Context, sessionID string, _ bool) (*reservation.Reservation, error) {
	for _, res := range r.st.reservations {
		if sessionID != "" && res.GatewaySessionID() == sessionID {
			return res.Clone(), nil
		}
	}
	return nil, infra.NewRepoErr(infra.KindNotFound, "reservation not found")
}

func (r *repo) FindByReference(_ context.Context, reference string) (*reservation.Reservation, error) {
	for _, res := range r.st.reservations {
		if res.Reference() == reference {
			return res.Clone(), nil
		}
	}
	return nil, infra.NewRepoErr(infra.KindNotFound, "reservation not found")
}

func (r *repo) ListLiveOverlapping(_ context.Context, slot calendar.TimeSlot, now time.Time) ([]*reservation.Reservation, error) {
	var out []*reservation.Reservation
	for _, res := range r.st.reservations {
		if isLive(res, now) && res.Slot().Overlaps(slot) {
			out = append(out, res.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot().Start().Before(out[j].Slot().Start()) })
	return out, nil
}

func (r *repo) CountLiveOnDate(_ context.Context, date time.Time, now time.Time) (int, error) {
	y, m, d := date.Date()
	count := 0
	for _, res := range r.st.reservations {
		ry, rm, rd := res.RequestedDate().In(date.Location()).Date()
		if ry == y && rm == m && rd == d && isLive(res, now) {
			count++
		}
	}
	return count, nil
}

// LockDate only records the day; transactions here already run one at a time.
func (r *repo) LockDate(_ context.Context, date time.Time) error {
	r.st.dateLocks = append(r.st.dateLocks, date.Format(time.DateOnly))
	return nil
}

func (r *repo) ExpireOverlappingStale(_ context.Context, slot calendar.TimeSlot, now time.Time) (int64, error) {
	var n int64
	for id, res := range r.st.reservations {
		if res.Slot() == nil || !res.Slot().Overlaps(slot) || !res.IsHoldExpired(now) {
			continue
		}
		c := res.Clone()
		if err := c.Expire(now); err != nil {
			return n, err
		}
		r.st.reservations[id] = c
		n++
	}
	return n, nil
}

func (r *repo) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, res := range r.st.reservations {
		if !res.IsHoldExpired(now) {
			continue
		}
		c := res.Clone()
		if err := c.Expire(now); err != nil {
			return n, err
		}
		r.st.reservations[id] = c
		n++
	}
	return n, nil
}

type keyRepo struct {
	st *state
}

func (k *keyRepo) TryInsert(_ context.Context, key uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	if _, exists := k.st.keys[key]; exists {
		return false, nil
	}
	k.st.keys[key] = &shared.IdempotencyRecord{
		Key:         key,
		Endpoint:    endpoint,
		Status:      shared.IdempotencyProcessing,
		RequestHash: requestHash,
		ExpiresAt:   expiresAt,
	}
	return true, nil
}

func (k *keyRepo) Get(_ context.Context, key uuid.UUID) (*shared.IdempotencyRecord, error) {
	rec, ok := k.st.keys[key]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "idempotency key not found")
	}
	c := *rec
	return &c, nil
}

func (k *keyRepo) ClaimExpired(_ context.Context, key uuid.UUID, requestHash string, now, expiresAt time.Time) (int64, error) {
	rec, ok := k.st.keys[key]
	if !ok || !rec.ExpiresAt.Before(now) {
		return 0, nil
	}
	rec.RequestHash = requestHash
	rec.Status = shared.IdempotencyProcessing
	rec.ResultReservationID = nil
	rec.ExpiresAt = expiresAt
	return 1, nil
}

func (k *keyRepo) MarkCompleted(_ context.Context, key uuid.UUID, reservationID uuid.UUID) error {
	rec, ok := k.st.keys[key]
	if !ok || rec.Status != shared.IdempotencyProcessing {
		return infra.NewRepoErr(infra.KindStale, "idempotency key is not processing")
	}
	rec.Status = shared.IdempotencyCompleted
	rec.ResultReservationID = &reservationID
	return nil
}

func (k *keyRepo) Release(_ context.Context, key uuid.UUID) error {
	if rec, ok := k.st.keys[key]; ok && rec.Status == shared.IdempotencyProcessing {
		delete(k.st.keys, key)
	}
	return nil
}

type jobRepo struct {
	st *state
}

func (j *jobRepo) CreateJob(_ context.Context, job shared.NotificationJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	j.st.jobs = append(j.st.jobs, job)
	return nil
}
