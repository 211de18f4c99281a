package domain

import (
	"context"
	"encoding/json"
	"time"
)

// EventType identifies the kind of event being published.
type EventType string

const (
	EventUserAdded       EventType = "user.added"
	EventUserRemoved     EventType = "user.removed"
	EventUsersRefreshed  EventType = "users.refreshed"
	EventUsersSearched   EventType = "users.searched"
	EventOperationFailed EventType = "operation.failed"
)

// Event is the envelope published on the event bus.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// UserPayload is the payload of EventUserAdded and EventUserRemoved.
type UserPayload struct {
	User User `json:"user"`
}

// RefreshedPayload is the payload of EventUsersRefreshed.
type RefreshedPayload struct {
	Count int `json:"count"`
}

// SearchedPayload is the payload of EventUsersSearched.
type SearchedPayload struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// FailurePayload is the payload of EventOperationFailed.
type FailurePayload struct {
	Op    string    `json:"op"`
	Code  ErrorCode `json:"code"`
	Error string    `json:"error"`
}

// NewEvent builds an event stamped with the current time. Payloads that fail
// to marshal are omitted.
func NewEvent(t EventType, payload any) Event {
	ev := Event{Type: t, Timestamp: time.Now()}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			ev.Payload = raw
		}
	}
	return ev
}

// EventHandler is a callback invoked when an event is received.
type EventHandler func(ctx context.Context, event Event)

// EventBus provides a publish/subscribe mechanism for domain events.
type EventBus interface {
	// Publish sends an event to all matching subscribers.
	Publish(ctx context.Context, event Event)
	// Subscribe registers a handler for a specific event type.
	// Returns an unsubscribe function.
	Subscribe(eventType EventType, handler EventHandler) func()
	// SubscribeAll registers a handler that receives every event.
	// Returns an unsubscribe function.
	SubscribeAll(handler EventHandler) func()
	// Close drains queued events and prevents new publishes.
	Close()
}
