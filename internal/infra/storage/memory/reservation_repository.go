package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"staybook/internal/domain/reservation"
)

// ReservationRepository stores reservations in process memory with the same
// compare-and-swap contract as the Mongo repository: Save succeeds only when
// the caller's version matches the stored one, then bumps it.
type ReservationRepository struct {
	mu    sync.RWMutex
	items map[reservation.ID]reservation.Reservation
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{items: make(map[reservation.ID]reservation.Reservation)}
}

func (r *ReservationRepository) ByID(_ context.Context, id reservation.ID) (*reservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.items[id]
	if !ok {
		return nil, reservation.ErrNotFound
	}
	copied := stored
	copied.ClearEvents()
	return &copied, nil
}

func (r *ReservationRepository) Save(_ context.Context, res *reservation.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.items[res.ID]
	switch {
	case !exists && res.Version != 0:
		return reservation.ErrNotFound
	case exists && stored.Version != res.Version:
		return reservation.ErrConcurrentUpdate
	}

	res.Version++
	copied := *res
	copied.ClearEvents()
	r.items[res.ID] = copied
	return nil
}

func (r *ReservationRepository) ListByGuest(_ context.Context, guestID string) ([]*reservation.Reservation, error) {
	return r.list(func(res reservation.Reservation) bool { return res.GuestID == guestID }), nil
}

func (r *ReservationRepository) ListByHost(_ context.Context, hostID string) ([]*reservation.Reservation, error) {
	return r.list(func(res reservation.Reservation) bool { return res.HostID == hostID }), nil
}

func (r *ReservationRepository) ListOverduePending(_ context.Context, before time.Time) ([]*reservation.Reservation, error) {
	return r.list(func(res reservation.Reservation) bool {
		return res.State == reservation.StatePending && res.CreatedAt.Before(before)
	}), nil
}

func (r *ReservationRepository) list(match func(reservation.Reservation) bool) []*reservation.Reservation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*reservation.Reservation, 0)
	for _, stored := range r.items {
		if match(stored) {
			copied := stored
			copied.ClearEvents()
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}
