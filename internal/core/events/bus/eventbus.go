package bus

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Wildcard is the event type used by SubscribeAll subscriptions.
const Wildcard = "*"

var ErrNilHandler = errors.New("event handler is nil")

// NewEvent stamps an event with the current time.
func NewEvent(eventType, source string, data any) Event {
	return Event{Type: eventType, Source: source, Time: time.Now(), Data: data}
}

type subscription struct {
	id        string
	eventType string
	handler   EventHandler
	seq       uint64
	mu        sync.Mutex
	active    bool
	cancel    func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }

func (s *subscription) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *subscription) Cancel() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = false
	s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// inMemoryBus keeps handlers per event type; Wildcard holds SubscribeAll handlers.
type inMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]map[string]*subscription
	seq      uint64
	metrics  Metrics
}

// New creates an empty EventBus.
func New() EventBus {
	return &inMemoryBus{
		handlers: make(map[string]map[string]*subscription),
	}
}

func (b *inMemoryBus) Publish(event Event) error {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	b.mu.RLock()
	subs := b.collectLocked(event.Type)
	if event.Type != Wildcard {
		subs = append(subs, b.collectLocked(Wildcard)...)
	}
	b.mu.RUnlock()

	var all error
	delivered := 0
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		delivered++
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}

	b.mu.Lock()
	b.metrics.Published++
	b.metrics.DeliveredHandlers += uint64(delivered)
	if all != nil {
		b.metrics.Errors++
	}
	b.mu.Unlock()

	return all
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[string]*subscription)
	}
	b.seq++
	id := uuid.NewString()
	s := &subscription{id: id, eventType: eventType, handler: handler, seq: b.seq, active: true}
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if m, ok := b.handlers[eventType]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(b.handlers, eventType)
			}
		}
		b.metrics.Subscribers--
	}
	b.handlers[eventType][id] = s
	b.metrics.Subscribers++
	return s, nil
}

func (b *inMemoryBus) SubscribeAll(handler EventHandler) (Subscription, error) {
	return b.Subscribe(Wildcard, handler)
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) Metrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

// collectLocked returns the subscriptions of one event type in subscription order.
func (b *inMemoryBus) collectLocked(eventType string) []*subscription {
	m := b.handlers[eventType]
	if len(m) == 0 {
		return nil
	}
	out := make([]*subscription, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	// map order is random; keep delivery deterministic
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].seq < out[j-1].seq; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
