package reservations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/catalog"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
)

var (
	ErrCheckInPast   = errors.New("reservations: check-in date is in the past")
	ErrUnknownAction = errors.New("reservations: unknown transition action")
)

// Producer publishes reservation events to a broker. Nil producers are
// tolerated; notification delivery is best effort and never blocks the
// reservation path.
type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// DefaultDecisionWindow is how long a pending reservation waits for a host
// decision before the sweep auto-rejects it.
const DefaultDecisionWindow = 24 * time.Hour

// Service orchestrates the reservation core: quoting, atomic admission into
// the availability index, state transitions, and the pending-decision sweep.
type Service struct {
	catalog      catalog.Repository
	reservations reservation.Repository
	index        availability.Index
	calculator   pricing.Calculator
	producer     Producer
	topic        string
	logger       *slog.Logger
	window       time.Duration
	now          func() time.Time

	releaseMu      sync.Mutex
	releaseBacklog map[string]struct{}
}

type Option func(*Service)

func WithProducer(p Producer, topic string) Option {
	return func(s *Service) {
		s.producer = p
		s.topic = topic
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithDecisionWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(
	cat catalog.Repository,
	repo reservation.Repository,
	index availability.Index,
	calc pricing.Calculator,
	opts ...Option,
) *Service {
	s := &Service{
		catalog:        cat,
		reservations:   repo,
		index:          index,
		calculator:     calc,
		window:         DefaultDecisionWindow,
		now:            time.Now,
		releaseBacklog: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	PropertyID string
	GuestID    string
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
	Breakdown  reservation.GuestBreakdown
}

// Create runs the booking path: quote, atomic admission, persist, notify.
// Admission and persistence are ordered so that a failed save releases the
// hold; an interval is never left occupied by a reservation that was not
// written.
func (s *Service) Create(ctx context.Context, input CreateInput) (*reservation.Reservation, error) {
	dr, err := daterange.New(input.CheckIn, input.CheckOut)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if daterange.Day(dr.CheckIn).Before(daterange.Day(now)) {
		return nil, ErrCheckInPast
	}

	property, err := s.catalog.ByID(ctx, catalog.PropertyID(input.PropertyID))
	if err != nil {
		return nil, err
	}
	if !property.Bookable() {
		return nil, catalog.ErrPropertyUnavailable
	}

	price, err := s.calculator.Quote(property.NightlyRate, dr)
	if err != nil {
		return nil, err
	}

	res, err := reservation.New(reservation.CreateParams{
		ID:        reservation.ID(uuid.NewString()),
		Property:  property,
		GuestID:   input.GuestID,
		Range:     dr,
		Guests:    input.Guests,
		Breakdown: input.Breakdown,
		Price:     price,
		Policy:    reservation.PolicySnapshot{Tier: reservation.ParseTier(property.CancellationPolicy)},
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	hold := availability.Hold{
		ReservationID: string(res.ID),
		PropertyID:    property.ID,
		Range:         dr,
	}
	if err := s.index.TryReserve(ctx, hold); err != nil {
		return nil, err
	}
	if err := s.reservations.Save(ctx, res); err != nil {
		s.release(ctx, string(res.ID))
		return nil, fmt.Errorf("save reservation: %w", err)
	}

	s.publish(ctx, res)
	s.log().Info("reservation requested",
		"reservation_id", res.ID, "property_id", res.PropertyID, "guest_id", res.GuestID,
		"check_in", dr.CheckIn, "check_out", dr.CheckOut, "total", res.Price.Total.Amount)
	return res, nil
}

// Action names a requested state transition.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionReject   Action = "reject"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

// ParseAction normalizes an action name from the transport layer.
func ParseAction(value string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(value))) {
	case ActionConfirm:
		return ActionConfirm, nil
	case ActionReject:
		return ActionReject, nil
	case ActionCancel:
		return ActionCancel, nil
	case ActionComplete:
		return ActionComplete, nil
	}
	return "", ErrUnknownAction
}

// Transition applies a single state change as one atomic operation: load,
// guard, compare-and-swap save. Reservations entering Rejected or Cancelled
// leave the availability index so the dates become bookable again; Completed
// does not release, its interval is history.
func (s *Service) Transition(ctx context.Context, id string, action Action, actor reservation.Actor, reason string) (*reservation.Reservation, error) {
	res, err := s.reservations.ByID(ctx, reservation.ID(id))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	switch action {
	case ActionConfirm:
		err = res.Confirm(actor, now)
	case ActionReject:
		err = res.Reject(actor, reason, now)
	case ActionCancel:
		err = res.Cancel(actor, reason, now)
	case ActionComplete:
		err = res.Complete(actor, now)
	default:
		err = ErrUnknownAction
	}
	if err != nil {
		return nil, err
	}

	if err := s.reservations.Save(ctx, res); err != nil {
		return nil, fmt.Errorf("save reservation: %w", err)
	}
	if res.State == reservation.StateRejected || res.State == reservation.StateCancelled {
		s.release(ctx, string(res.ID))
	}

	s.publish(ctx, res)
	s.log().Info("reservation transitioned",
		"reservation_id", res.ID, "action", action, "state", res.State, "actor", actor.ID, "role", actor.Role)
	return res, nil
}

// Get loads a reservation, restricted to its guest, its host, or an
// administrator.
func (s *Service) Get(ctx context.Context, id string, actor reservation.Actor) (*reservation.Reservation, error) {
	res, err := s.reservations.ByID(ctx, reservation.ID(id))
	if err != nil {
		return nil, err
	}
	if actor.Role != reservation.RoleAdmin && actor.ID != res.GuestID && actor.ID != res.HostID {
		return nil, reservation.ErrForbidden
	}
	return res, nil
}

// release removes a reservation's hold. Failures are remembered and retried
// by the sweep, so a transient index error cannot fence dates forever.
func (s *Service) release(ctx context.Context, id string) {
	if err := s.index.Release(ctx, id); err != nil {
		s.log().Error("availability release failed, queued for retry", "reservation_id", id, "error", err)
		s.releaseMu.Lock()
		s.releaseBacklog[id] = struct{}{}
		s.releaseMu.Unlock()
		return
	}
	s.releaseMu.Lock()
	delete(s.releaseBacklog, id)
	s.releaseMu.Unlock()
}

func (s *Service) retryPendingReleases(ctx context.Context) {
	s.releaseMu.Lock()
	ids := make([]string, 0, len(s.releaseBacklog))
	for id := range s.releaseBacklog {
		ids = append(ids, id)
	}
	s.releaseMu.Unlock()

	for _, id := range ids {
		s.release(ctx, id)
	}
}

// ExpireOverdue rejects pending reservations whose decision window has
// elapsed. It is the only autonomous state change in the core and goes
// through the same guards as any caller, acting as the system actor.
// Each pass also retries holds whose release previously failed.
func (s *Service) ExpireOverdue(ctx context.Context) ([]*reservation.Reservation, error) {
	s.retryPendingReleases(ctx)

	now := s.now().UTC()
	overdue, err := s.reservations.ListOverduePending(ctx, now.Add(-s.window))
	if err != nil {
		return nil, err
	}

	swept := make([]*reservation.Reservation, 0, len(overdue))
	for _, res := range overdue {
		if err := res.Reject(reservation.SystemActor, "no host decision within the decision window", now); err != nil {
			// Lost the race against a concurrent host decision; skip.
			continue
		}
		if err := s.reservations.Save(ctx, res); err != nil {
			s.log().Error("sweep save failed", "reservation_id", res.ID, "error", err)
			continue
		}
		s.release(ctx, string(res.ID))
		s.publish(ctx, res)
		swept = append(swept, res)
	}
	if len(swept) > 0 {
		s.log().Info("overdue pending reservations rejected", "count", len(swept))
	}
	return swept, nil
}

// Quote prices a prospective stay without reserving anything.
func (s *Service) Quote(ctx context.Context, propertyID string, checkIn, checkOut time.Time) (pricing.Breakdown, error) {
	dr, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	property, err := s.catalog.ByID(ctx, catalog.PropertyID(propertyID))
	if err != nil {
		return pricing.Breakdown{}, err
	}
	return s.calculator.Quote(property.NightlyRate, dr)
}

// CheckAvailability is the advisory probe behind the UI's availability call.
// A true result is not a hold; only Create admits.
func (s *Service) CheckAvailability(ctx context.Context, propertyID string, checkIn, checkOut time.Time) (bool, error) {
	dr, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return false, err
	}
	if _, err := s.catalog.ByID(ctx, catalog.PropertyID(propertyID)); err != nil {
		return false, err
	}
	return s.index.IsAvailable(ctx, catalog.PropertyID(propertyID), dr)
}

// ListByGuest returns a guest's reservations, optionally filtered by state.
func (s *Service) ListByGuest(ctx context.Context, guestID, status string) ([]*reservation.Reservation, error) {
	items, err := s.reservations.ListByGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	return filterByState(items, status), nil
}

// ListByHost returns reservations on a host's properties, optionally filtered
// by state.
func (s *Service) ListByHost(ctx context.Context, hostID, status string) ([]*reservation.Reservation, error) {
	items, err := s.reservations.ListByHost(ctx, hostID)
	if err != nil {
		return nil, err
	}
	return filterByState(items, status), nil
}

// Stats summarizes a user's reservations by state, with total spend across
// completed stays.
type Stats struct {
	Total      int    `json:"total"`
	Pending    int    `json:"pending"`
	Confirmed  int    `json:"confirmed"`
	Completed  int    `json:"completed"`
	Cancelled  int    `json:"cancelled"`
	Rejected   int    `json:"rejected"`
	TotalSpent int64  `json:"total_spent"`
	Currency   string `json:"currency,omitempty"`
}

func (s *Service) Stats(ctx context.Context, userID string, asHost bool) (Stats, error) {
	var (
		items []*reservation.Reservation
		err   error
	)
	if asHost {
		items, err = s.reservations.ListByHost(ctx, userID)
	} else {
		items, err = s.reservations.ListByGuest(ctx, userID)
	}
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Total: len(items)}
	for _, res := range items {
		switch res.State {
		case reservation.StatePending:
			stats.Pending++
		case reservation.StateConfirmed:
			stats.Confirmed++
		case reservation.StateCompleted:
			stats.Completed++
			stats.TotalSpent += res.Price.Total.Amount
			stats.Currency = res.Price.Total.Currency
		case reservation.StateCancelled:
			stats.Cancelled++
		case reservation.StateRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}

func filterByState(items []*reservation.Reservation, status string) []*reservation.Reservation {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status == "" || status == "ALL" {
		return items
	}
	filtered := make([]*reservation.Reservation, 0, len(items))
	for _, res := range items {
		if string(res.State) == status {
			filtered = append(filtered, res)
		}
	}
	return filtered
}

// Event is the broker payload for a reservation state change.
type Event struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservation_id"`
	PropertyID    string    `json:"property_id"`
	GuestID       string    `json:"guest_id,omitempty"`
	HostID        string    `json:"host_id,omitempty"`
	State         string    `json:"state"`
	Reason        string    `json:"reason,omitempty"`
	Refund        *int64    `json:"refund,omitempty"`
	Total         int64     `json:"total"`
	Currency      string    `json:"currency"`
	At            time.Time `json:"at"`
}

func (s *Service) publish(ctx context.Context, res *reservation.Reservation) {
	pending := res.PendingEvents()
	res.ClearEvents()
	if s.producer == nil || s.topic == "" {
		return
	}
	for _, evt := range pending {
		payload := s.eventPayload(res, evt)
		if err := s.producer.Publish(ctx, s.topic, string(res.ID), payload); err != nil {
			s.log().Warn("event publish failed", "reservation_id", res.ID, "event", evt.EventName(), "error", err)
		}
	}
}

func (s *Service) eventPayload(res *reservation.Reservation, evt events.Event) Event {
	payload := Event{
		Type:          evt.EventName(),
		ReservationID: string(res.ID),
		PropertyID:    string(res.PropertyID),
		GuestID:       res.GuestID,
		HostID:        res.HostID,
		State:         string(res.State),
		Reason:        res.Reason,
		Total:         res.Price.Total.Amount,
		Currency:      res.Price.Total.Currency,
		At:            evt.OccurredAt(),
	}
	if res.Refund != nil {
		amount := res.Refund.Amount
		payload.Refund = &amount
	}
	return payload
}

func (s *Service) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
