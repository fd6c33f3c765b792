// Package event carries domain events from the write operations that produce
// them to whoever translates them for the outside world (the realtime relay).
package event

import (
	"context"
	"sync"
)

// Action is the kind of mutation an event describes.
type Action string

const (
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Entity names used in event names.
const (
	EntityProduct  = "product"
	EntityCategory = "category"
	EntityBanner   = "banner"
	EntitySettings = "settings"
	EntityPurchase = "purchase"
)

// Event describes a committed mutation. Payload is the canonical entity, or
// the bare identifier for deletes.
type Event struct {
	Entity  string
	Action  Action
	Payload any
}

// Name is the wire name, e.g. "category-added".
func (e Event) Name() string {
	return e.Entity + "-" + string(e.Action)
}

func Added(entity string, payload any) Event {
	return Event{Entity: entity, Action: ActionAdded, Payload: payload}
}

func Updated(entity string, payload any) Event {
	return Event{Entity: entity, Action: ActionUpdated, Payload: payload}
}

func Deleted(entity, id string) Event {
	return Event{Entity: entity, Action: ActionDeleted, Payload: id}
}

// Publisher receives events after the write they describe has been persisted.
// Publishing never fails the caller's operation.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}

// Recorder keeps published events in memory; used by tests across packages.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the wire names of the recorded events in publish order.
func (r *Recorder) Names() []string {
	events := r.Events()
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name())
	}
	return names
}

// Count returns how many events named name were published.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, e := range r.Events() {
		if e.Name() == name {
			n++
		}
	}
	return n
}
