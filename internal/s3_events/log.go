package s3_events

import (
	"strings"

	"github.com/google/uuid"

	"github.com/wonny/retailpulse/internal/contracts"
)

// eventNamespace seeds name-based event IDs
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("retailpulse/events"))

// EventLog is an append-only sequence of events.
// Appended events get a sequence number and are never changed or removed;
// readers receive copies.
type EventLog struct {
	events []contracts.Event
}

// NewEventLog creates an empty log
func NewEventLog() *EventLog {
	return &EventLog{events: make([]contracts.Event, 0)}
}

// Append stamps e with the next sequence number and an ID derived from
// its type and key parts, then stores it
func (l *EventLog) Append(e contracts.Event, keys ...string) contracts.Event {
	e.Sequence = len(l.events)
	e.ID = EventID(e.Type, keys...)
	e = detach(e)
	l.events = append(l.events, e)
	return detach(e)
}

// Len returns the number of events
func (l *EventLog) Len() int {
	return len(l.events)
}

// Events returns a copy of the log
func (l *EventLog) Events() []contracts.Event {
	out := make([]contracts.Event, len(l.events))
	for i, e := range l.events {
		out[i] = detach(e)
	}
	return out
}

// CountByType tallies events per type
func (l *EventLog) CountByType() map[contracts.EventType]int {
	out := make(map[contracts.EventType]int)
	for _, e := range l.events {
		out[e.Type]++
	}
	return out
}

// EventID returns the deterministic ID of an event of type t identified by keys
func EventID(t contracts.EventType, keys ...string) string {
	name := string(t) + "|" + strings.Join(keys, "|")
	return uuid.NewSHA1(eventNamespace, []byte(name)).String()
}

// detach gives e its own timestamp so no caller shares memory with the log
func detach(e contracts.Event) contracts.Event {
	if e.OccurredAt != nil {
		ts := *e.OccurredAt
		e.OccurredAt = &ts
	}
	return e
}
