package memory

import (
	"context"
	"sort"
	"sync"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/catalog"
	"staybook/internal/domain/shared/daterange"
)

// propertyHolds is one property's slice of the index. Its mutex is the
// admission critical section: the overlap scan and the insert for that
// property happen under it, and under nothing wider.
type propertyHolds struct {
	mu    sync.Mutex
	holds []availability.Hold
}

// AvailabilityIndex keeps the active holds of every property in process
// memory. Locking is per property: concurrent admissions on different
// properties never contend. The index-wide mutex guards only the two lookup
// maps and is never held across an overlap scan.
type AvailabilityIndex struct {
	mu            sync.RWMutex
	properties    map[catalog.PropertyID]*propertyHolds
	byReservation map[string]catalog.PropertyID
}

func NewAvailabilityIndex() *AvailabilityIndex {
	return &AvailabilityIndex{
		properties:    make(map[catalog.PropertyID]*propertyHolds),
		byReservation: make(map[string]catalog.PropertyID),
	}
}

func (i *AvailabilityIndex) entry(propertyID catalog.PropertyID) *propertyHolds {
	i.mu.RLock()
	e := i.properties[propertyID]
	i.mu.RUnlock()
	if e != nil {
		return e
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if e = i.properties[propertyID]; e == nil {
		e = &propertyHolds{}
		i.properties[propertyID] = e
	}
	return e
}

func (i *AvailabilityIndex) TryReserve(_ context.Context, hold availability.Hold) error {
	e := i.entry(hold.PropertyID)

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, existing := range e.holds {
		if existing.ReservationID == hold.ReservationID {
			return nil
		}
		if existing.Range.Overlaps(hold.Range) {
			return availability.ErrConflict
		}
	}

	e.holds = append(e.holds, hold)
	sort.Slice(e.holds, func(a, b int) bool {
		return e.holds[a].Range.CheckIn.Before(e.holds[b].Range.CheckIn)
	})

	i.mu.Lock()
	i.byReservation[hold.ReservationID] = hold.PropertyID
	i.mu.Unlock()
	return nil
}

func (i *AvailabilityIndex) Release(_ context.Context, reservationID string) error {
	i.mu.Lock()
	propertyID, ok := i.byReservation[reservationID]
	if !ok {
		i.mu.Unlock()
		return nil
	}
	delete(i.byReservation, reservationID)
	e := i.properties[propertyID]
	i.mu.Unlock()

	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for idx, existing := range e.holds {
		if existing.ReservationID == reservationID {
			e.holds = append(e.holds[:idx], e.holds[idx+1:]...)
			break
		}
	}
	return nil
}

func (i *AvailabilityIndex) IsAvailable(_ context.Context, propertyID catalog.PropertyID, dr daterange.DateRange) (bool, error) {
	i.mu.RLock()
	e := i.properties[propertyID]
	i.mu.RUnlock()
	if e == nil {
		return true, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.holds {
		if existing.Range.Overlaps(dr) {
			return false, nil
		}
	}
	return true, nil
}
