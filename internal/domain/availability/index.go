package availability

import (
	"context"
	"errors"

	"staybook/internal/domain/catalog"
	"staybook/internal/domain/shared/daterange"
)

// ErrConflict is returned when a requested interval overlaps an interval
// already held by an active reservation on the same property.
var ErrConflict = errors.New("availability: interval conflicts with an active reservation")

// Hold is an interval held in the index on behalf of a reservation.
type Hold struct {
	ReservationID string
	PropertyID    catalog.PropertyID
	Range         daterange.DateRange
}

// Index is the authoritative conflict set of active (pending or confirmed)
// reservations, keyed by property.
//
// TryReserve must be atomic per property: the overlap check and the insert
// happen inside one critical section (an in-process lock, or a storage-level
// uniqueness constraint), so two concurrent calls for the same property can
// never both succeed on overlapping ranges. Different properties do not
// contend with each other.
//
// IsAvailable is advisory only. A true result can be stale by the time the
// caller acts on it; only TryReserve admits.
type Index interface {
	TryReserve(ctx context.Context, hold Hold) error
	Release(ctx context.Context, reservationID string) error
	IsAvailable(ctx context.Context, propertyID catalog.PropertyID, dr daterange.DateRange) (bool, error)
}
