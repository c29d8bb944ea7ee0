// Package pubsub fans events out to any number of subscribers.
//
// The highlighter publishes a HighlightedEvent each time a run installs
// spans, the file watcher publishes ReloadedEvent, and the logger publishes
// every formatted entry as a LoggedEvent.
package pubsub

import (
	"context"
	"time"
)

// EventType labels what happened.
type EventType string

const (
	HighlightedEvent EventType = "highlighted" // highlight spans installed, redraw needed
	ReloadedEvent    EventType = "reloaded"    // document changed on disk
	LoggedEvent      EventType = "logged"      // log entry written
)

// Event is a published value with its type and publish time.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out subscription channels.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher accepts events.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
