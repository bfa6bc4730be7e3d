package bus

import "time"

// EventBus is an in-process pub/sub bus for graph and scene lifecycle events.
//
// Delivery is synchronous: Publish runs handlers in the caller goroutine, in
// subscription order, and joins their errors. Handlers subscribed with
// SubscribeAll receive every event type after the type-specific handlers.
// All methods are safe for concurrent use; handlers that need to touch the
// entity tree must hop onto the update loop themselves.
type EventBus interface {
	// Publish delivers the event to all active subscribers of event.Type and to
	// wildcard subscribers. Handler errors are joined and returned.
	Publish(event Event) error
	// Subscribe registers a handler for one event type.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// SubscribeAll registers a handler that receives every event.
	SubscribeAll(handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the subscription. Nil is ignored.
	Unsubscribe(Subscription) error
	// Metrics returns a snapshot of delivery counters.
	Metrics() Metrics
}

// Event is an immutable notification. Data is owned by the publisher and must
// be treated as read-only by handlers.
type Event struct {
	Type   string    `json:"type"`
	Source string    `json:"source"`
	Time   time.Time `json:"time"`
	Data   any       `json:"data,omitempty"`
}

// EventHandler is invoked once per delivered event.
type EventHandler func(event Event) error

// Subscription is a handle to a registered handler.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	Cancel() error
}

// Metrics holds delivery counters.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	Subscribers       uint64
}
