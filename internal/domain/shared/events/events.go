package events

import "time"

// Event is a domain event raised by an aggregate.
type Event interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder collects events raised during an aggregate operation. Embed it
// in an aggregate and drain with PendingEvents/ClearEvents after persisting.
type EventRecorder struct {
	pending []Event
}

// Record appends an event to the pending list.
func (r *EventRecorder) Record(e Event) {
	r.pending = append(r.pending, e)
}

// PendingEvents returns the events recorded since the last clear.
func (r *EventRecorder) PendingEvents() []Event {
	return r.pending
}

// ClearEvents drops all pending events.
func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}
