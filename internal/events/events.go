// Package events publishes ledger changes so that live views can refresh.
package events

import (
	"context"
	"sync"
	"time"
)

// Event types. The type is also the routing key.
const (
	GroupCreated     = "group.created"
	GroupMemberAdded = "group.member_added"
	GroupDeleted     = "group.deleted"
	ExpenseRecorded  = "expense.recorded"
)

// Event describes one committed ledger change.
type Event struct {
	Type       string    `json:"type"`
	GroupID    string    `json:"group_id"`
	ActorID    string    `json:"actor_id"`
	SubjectID  string    `json:"subject_id,omitempty"`
	Amount     float64   `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events. Publish is called after the change has committed.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the type of every published event, in order.
func (r *Recorder) Types() []string {
	evs := r.Events()
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}
