package reservation

import (
	"context"
	"errors"
	"time"

	"staybook/internal/domain/catalog"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
)

var (
	ErrInvalidGuests      = errors.New("reservation: party size must be positive")
	ErrGuestCountMismatch = errors.New("reservation: adults plus children must equal party size")
	ErrCapacityExceeded   = errors.New("reservation: party size exceeds property capacity")
	ErrOwnProperty        = errors.New("reservation: hosts cannot reserve their own property")
	ErrInvalidTransition  = errors.New("reservation: invalid state transition")
	ErrForbidden          = errors.New("reservation: actor may not perform this transition")
	ErrNotFound           = errors.New("reservation: not found")
	ErrConcurrentUpdate   = errors.New("reservation: concurrent update")
)

type ID string

type State string

const (
	StatePending   State = "PENDING"
	StateConfirmed State = "CONFIRMED"
	StateRejected  State = "REJECTED"
	StateCancelled State = "CANCELLED"
	StateCompleted State = "COMPLETED"
)

// Terminal reports whether no further transitions are possible from s.
func (s State) Terminal() bool {
	switch s {
	case StateRejected, StateCancelled, StateCompleted:
		return true
	}
	return false
}

// Active reports whether the reservation still occupies the availability
// index. Only pending and confirmed reservations count toward conflicts.
func (s State) Active() bool {
	return s == StatePending || s == StateConfirmed
}

// transitions is the complete edge set. Anything absent is rejected with
// ErrInvalidTransition regardless of who asks.
var transitions = map[State][]State{
	StatePending:   {StateConfirmed, StateRejected},
	StateConfirmed: {StateCancelled, StateCompleted},
}

func edgeAllowed(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Role identifies the kind of actor requesting a transition.
type Role string

const (
	RoleGuest  Role = "guest"
	RoleHost   Role = "host"
	RoleAdmin  Role = "admin"
	RoleSystem Role = "system"
)

// Actor is the party requesting a transition.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is used by autonomous processes such as the pending-decision
// sweep. It passes host-level guards but is auditable as non-human.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

func (a Actor) privileged() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

// GuestBreakdown details the party composition. Infants do not count toward
// the declared party size or the property capacity.
type GuestBreakdown struct {
	Adults   int `json:"adults" bson:"adults"`
	Children int `json:"children" bson:"children"`
	Infants  int `json:"infants" bson:"infants"`
}

// Reservation is the central aggregate: one record per booking attempt that
// reached the availability index. Price and cancellation policy are
// snapshotted at creation and never recomputed. Terminal reservations are
// retained for audit, never deleted.
type Reservation struct {
	ID         ID
	PropertyID catalog.PropertyID
	GuestID    string
	HostID     string
	Range      daterange.DateRange
	Guests     int
	Breakdown  GuestBreakdown
	Price      pricing.Breakdown
	Policy     PolicySnapshot
	State      State
	Reason     string
	Refund     *money.Money
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.EventRecorder
}

// Repository persists reservations. Save must perform a compare-and-swap on
// Version so a transition issued from a stale read fails instead of clobbering
// a concurrent one.
type Repository interface {
	ByID(ctx context.Context, id ID) (*Reservation, error)
	Save(ctx context.Context, r *Reservation) error
	ListByGuest(ctx context.Context, guestID string) ([]*Reservation, error)
	ListByHost(ctx context.Context, hostID string) ([]*Reservation, error)
	ListOverduePending(ctx context.Context, before time.Time) ([]*Reservation, error)
}

type CreateParams struct {
	ID        ID
	Property  *catalog.Property
	GuestID   string
	Range     daterange.DateRange
	Guests    int
	Breakdown GuestBreakdown
	Price     pricing.Breakdown
	Policy    PolicySnapshot
	CreatedAt time.Time
}

// New validates party composition against the property and builds a pending
// reservation. Interval validity and availability are the caller's concern;
// by the time New runs the interval has already been admitted to the index.
func New(params CreateParams) (*Reservation, error) {
	if params.GuestID == "" {
		return nil, errors.New("reservation: guest id required")
	}
	if params.Property == nil {
		return nil, catalog.ErrPropertyNotFound
	}
	if params.Guests <= 0 || params.Breakdown.Adults < 1 || params.Breakdown.Children < 0 || params.Breakdown.Infants < 0 {
		return nil, ErrInvalidGuests
	}
	if params.Breakdown.Adults+params.Breakdown.Children != params.Guests {
		return nil, ErrGuestCountMismatch
	}
	if params.Guests > params.Property.MaxGuests {
		return nil, ErrCapacityExceeded
	}
	if params.GuestID == string(params.Property.Host) {
		return nil, ErrOwnProperty
	}
	if !params.Price.Consistent() {
		return nil, errors.New("reservation: price breakdown is inconsistent")
	}

	now := params.CreatedAt.UTC()
	r := &Reservation{
		ID:         params.ID,
		PropertyID: params.Property.ID,
		GuestID:    params.GuestID,
		HostID:     string(params.Property.Host),
		Range:      params.Range,
		Guests:     params.Guests,
		Breakdown:  params.Breakdown,
		Price:      params.Price,
		Policy:     params.Policy,
		State:      StatePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.Record(ReservationRequested{
		ReservationID: r.ID,
		PropertyID:    r.PropertyID,
		GuestID:       r.GuestID,
		HostID:        r.HostID,
		Range:         r.Range,
		Guests:        r.Guests,
		Total:         r.Price.Total,
		At:            now,
	})
	return r, nil
}

// Confirm moves Pending to Confirmed. Only the property owner or an
// administrator may decide on a pending request.
func (r *Reservation) Confirm(actor Actor, now time.Time) error {
	if err := r.guard(actor, StateConfirmed); err != nil {
		return err
	}
	r.apply(StateConfirmed, "", now)
	r.Record(ReservationConfirmed{ReservationID: r.ID, PropertyID: r.PropertyID, Range: r.Range, Total: r.Price.Total, At: r.UpdatedAt})
	return nil
}

// Reject moves Pending to Rejected with an optional reason. The sweep uses
// the system actor here when a request times out without a host decision.
func (r *Reservation) Reject(actor Actor, reason string, now time.Time) error {
	if err := r.guard(actor, StateRejected); err != nil {
		return err
	}
	r.apply(StateRejected, reason, now)
	r.Record(ReservationRejected{ReservationID: r.ID, Reason: reason, At: r.UpdatedAt})
	return nil
}

// Cancel moves Confirmed to Cancelled, computing the refund from the policy
// snapshot. Either party may cancel, but not once the stay has begun: a
// started stay can only progress to Completed.
func (r *Reservation) Cancel(actor Actor, reason string, now time.Time) error {
	if err := r.guard(actor, StateCancelled); err != nil {
		return err
	}
	if r.Range.Started(now) {
		return ErrInvalidTransition
	}
	refund := r.Policy.Refund(r.Range.DaysUntil(now), r.Price.Total)
	r.apply(StateCancelled, reason, now)
	r.Refund = &refund
	r.Record(ReservationCancelled{ReservationID: r.ID, Reason: reason, Refund: refund, At: r.UpdatedAt})
	return nil
}

// Complete moves Confirmed to Completed once the stay has ended. No refund is
// computed and the interval stays out of the conflict set by construction.
func (r *Reservation) Complete(actor Actor, now time.Time) error {
	if err := r.guard(actor, StateCompleted); err != nil {
		return err
	}
	if !r.Range.Ended(now) {
		return ErrInvalidTransition
	}
	r.apply(StateCompleted, "", now)
	r.Record(ReservationCompleted{ReservationID: r.ID, PropertyID: r.PropertyID, At: r.UpdatedAt})
	return nil
}

// guard checks the edge exists from the current state and that the actor has
// the right to take it. Edge checks run first: a host asking to confirm a
// cancelled reservation gets ErrInvalidTransition, not ErrForbidden.
func (r *Reservation) guard(actor Actor, to State) error {
	if !edgeAllowed(r.State, to) {
		return ErrInvalidTransition
	}
	if actor.privileged() {
		return nil
	}
	switch to {
	case StateConfirmed, StateRejected, StateCompleted:
		if actor.ID != r.HostID {
			return ErrForbidden
		}
	case StateCancelled:
		if actor.ID != r.GuestID && actor.ID != r.HostID {
			return ErrForbidden
		}
	}
	return nil
}

func (r *Reservation) apply(to State, reason string, now time.Time) {
	r.State = to
	if reason != "" {
		r.Reason = reason
	}
	r.UpdatedAt = now.UTC()
}
