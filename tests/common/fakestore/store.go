//go:build unit || e2e

// Package fakestore is an in-memory UnitOfWork. Transactions run one at a
// time against a private copy that is swapped in on commit, and the exclusion
// constraint on live slots is enforced on every write.
package fakestore

import (
	"context"
	"sort"
	"sync"
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type state struct {
	reservations map[uuid.UUID]*reservation.Reservation
	keys         map[uuid.UUID]*shared.IdempotencyRecord
	jobs         []shared.NotificationJob
	dateLocks    []string
}

func (s *state) clone() *state {
	out := &state{
		reservations: make(map[uuid.UUID]*reservation.Reservation, len(s.reservations)),
		keys:         make(map[uuid.UUID]*shared.IdempotencyRecord, len(s.keys)),
		jobs:         append([]shared.NotificationJob(nil), s.jobs...),
		dateLocks:    append([]string(nil), s.dateLocks...),
	}
	for id, r := range s.reservations {
		out.reservations[id] = r.Clone()
	}
	for k, rec := range s.keys {
		c := *rec
		out.keys[k] = &c
	}
	return out
}

type Store struct {
	mu      sync.Mutex
	current *state

	// FailNextWithin makes the next Within return this error without running fn.
	FailNextWithin error
}

func New() *Store {
	return &Store{current: &state{
		reservations: map[uuid.UUID]*reservation.Reservation{},
		keys:         map[uuid.UUID]*shared.IdempotencyRecord{},
	}}
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailNextWithin; err != nil {
		s.FailNextWithin = nil
		return err
	}

	work := s.current.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	s.current = work
	return nil
}

func (s *Store) Reservations() shared.ReservationRepository {
	return &poolRepo{store: s}
}

// Seed stores res as-is, bypassing the constraint.
func (s *Store) Seed(res *reservation.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.reservations[res.ID()] = res.Clone()
}

func (s *Store) Get(id uuid.UUID) (*reservation.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.current.reservations[id]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// All returns every stored reservation ordered by creation time.
func (s *Store) All() []*reservation.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*reservation.Reservation, 0, len(s.current.reservations))
	for _, r := range s.current.reservations {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out
}

func (s *Store) Jobs() []shared.NotificationJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]shared.NotificationJob(nil), s.current.jobs...)
}

// DateLocks lists the days locked by committed transactions, oldest first.
func (s *Store) DateLocks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.current.dateLocks...)
}

func (s *Store) Key(key uuid.UUID) (*shared.IdempotencyRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.current.keys[key]
	if !ok {
		return nil, false
	}
	c := *rec
	return &c, true
}

// SetKey overwrites an idempotency record, e.g. to age it past its TTL.
func (s *Store) SetKey(rec shared.IdempotencyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.keys[rec.Key] = &rec
}

type tx struct {
	st *state
}

func (t *tx) Reservations() shared.ReservationRepository {
	return &repo{st: t.st}
}

func (t *tx) Idempotency() shared.IdempotencyRepository {
	return &keyRepo{st: t.st}
}

func (t *tx) Notifications() shared.NotificationRepository {
	return &jobRepo{st: t.st}
}

// poolRepo runs each call as its own short transaction.
type poolRepo struct {
	store *Store
}

func (p *poolRepo) do(fn func(r *repo) error) error {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	work := p.store.current.clone()
	if err := fn(&repo{st: work}); err != nil {
		return err
	}
	p.store.current = work
	return nil
}

func (p *poolRepo) Insert(ctx context.Context, res *reservation.Reservation) error {
	return p.do(func(r *repo) error { return r.Insert(ctx, res) })
}

func (p *poolRepo) Update(ctx context.Context, res *reservation.Reservation, expected reservation.Status) error {
	return p.do(func(r *repo) error { return r.Update(ctx, res, expected) })
}

func (p *poolRepo) FindByID(ctx context.Context, id uuid.UUID, forUpdate bool) (out *reservation.Reservation, err error) {
	err = p.do(func(r *repo) error {
		out, err = r.FindByID(ctx, id, forUpdate)
		return err
	})
	return out, err
}

func (p *poolRepo) FindBySessionID(ctx context.Context, sessionID string, forUpdate bool) (out *reservation.Reservation, err error) {
	err = p.do(func(r *repo) error {
		out, err = r.FindBySessionID(ctx, sessionID, forUpdate)
		return err
	})
	return out, err
}

func (p *poolRepo) FindByReference(ctx context.Context, reference string) (out *reservation.Reservation, err error) {
	err = p.do(func(r *repo) error {
		out, err = r.FindByReference(ctx, reference)
		return err
	})
	return out, err
}

func (p *poolRepo) ListLiveOverlapping(ctx context.Context, slot calendar.TimeSlot, now time.Time) (out []*reservation.Reservation, err error) {
	err = p.do(func(r *repo) error {
		out, err = r.ListLiveOverlapping(ctx, slot, now)
		return err
	})
	return out, err
}

func (p *poolRepo) CountLiveOnDate(ctx context.Context, date time.Time, now time.Time) (out int, err error) {
	err = p.do(func(r *repo) error {
		out, err = r.CountLiveOnDate(ctx, date, now)
		return err
	})
	return out, err
}

func (p *poolRepo) LockDate(ctx context.Context, date time.Time) error {
	return p.do(func(r *repo) error { return r.LockDate(ctx, date) })
}

func (p *poolRepo) ExpireOverlappingStale(ctx context.Context, slot calendar.TimeSlot, now time.Time) (out int64, err error) {
	err = p.do(func(r *repo) error {
		out, err = r.ExpireOverlappingStale(ctx, slot, now)
		return err
	})
	return out, err
}

func (p *poolRepo) ExpireStale(ctx context.Context, now time.Time) (out int64, err error) {
	err = p.do(func(r *repo) error {
		out, err = r.ExpireStale(ctx, now)
		return err
	})
	return out, err
}
