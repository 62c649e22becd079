package catalog

import (
	"context"
	"errors"

	"staybook/internal/domain/shared/money"
)

var (
	// ErrPropertyNotFound is returned when a property cannot be located.
	ErrPropertyNotFound = errors.New("catalog: property not found")
	// ErrPropertyUnavailable is returned when a property exists but does not
	// accept reservations.
	ErrPropertyUnavailable = errors.New("catalog: property is not accepting reservations")
)

type PropertyID string
type HostID string

// Property is the read model of a bookable unit. The catalog is owned by an
// external listing service; the reservation core only reads it by identifier
// and snapshots whatever it needs at reservation time.
type Property struct {
	ID                 PropertyID
	Host               HostID
	Title              string
	NightlyRate        money.Money
	MaxGuests          int
	Active             bool
	CancellationPolicy string
}

// Bookable reports whether the property accepts new reservations at all.
// Date-level availability is the availability index's concern, not the
// catalog's.
func (p *Property) Bookable() bool {
	return p != nil && p.Active && p.MaxGuests > 0 && p.NightlyRate.Amount >= 0
}

// Repository reads properties from the external catalog.
type Repository interface {
	ByID(ctx context.Context, id PropertyID) (*Property, error)
}
