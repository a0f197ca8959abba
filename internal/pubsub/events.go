// Package pubsub fans validation events out to interested listeners.
package pubsub

import (
	"context"
	"time"
)

// EventType names what happened.
type EventType string

const (
	RunStarted       EventType = "run.started"
	RunCompleted     EventType = "run.completed"
	RunFailed        EventType = "run.failed"
	RulesChanged     EventType = "rules.changed"
	DocumentsChanged EventType = "documents.changed"
	LogEntry         EventType = "log.entry"
)

// Event carries a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out event channels.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context, types ...EventType) <-chan Event[T]
}

// Publisher accepts events.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
