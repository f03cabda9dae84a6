// Package eventbus distributes profile store change notifications to
// in-process subscribers. The serve layer bridges them to websocket clients.
package eventbus

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types published on the bus.
const (
	ProviderAdded     = "provider.added"
	ProviderUpdated   = "provider.updated"
	ProviderRemoved   = "provider.removed"
	ProviderActivated = "provider.activated"
	StoreReloaded     = "store.reloaded"
)

// Event is one change notification. It identifies the profile but never
// carries its settings payload or secrets.
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"ts"`
	AppType   string `json:"app_type,omitempty"`
	Provider  string `json:"provider_id,omitempty"`
	Name      string `json:"name,omitempty"`
}

// Bus is a fan-out pub/sub event bus. Subscribers receive events on a
// buffered channel. Slow subscribers are dropped (non-blocking publish).
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]map[string]bool // channel → set of subscribed types (nil = all)
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		subs: make(map[chan Event]map[string]bool),
	}
}

// Subscribe returns a channel that receives events matching the given types.
// If no types are given, all events are received. The channel is buffered (64).
func (b *Bus) Subscribe(types ...string) chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(types) == 0 {
		b.subs[ch] = nil
	} else {
		filter := make(map[string]bool, len(types))
		for _, t := range types {
			filter[t] = true
		}
		b.subs[ch] = filter
	}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Publish sends an event to all matching subscribers, filling in the id and
// timestamp when unset. Non-blocking: if a subscriber's buffer is full the
// event is dropped for that subscriber.
func (b *Bus) Publish(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().Unix()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, filter := range b.subs {
		if filter != nil && !filter[e.Type] {
			continue
		}
		select {
		case ch <- e:
		default:
			// slow subscriber, drop
		}
	}
}

// Close unsubscribes all subscribers and closes their channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		close(ch)
		delete(b.subs, ch)
	}
}
