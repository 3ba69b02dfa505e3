// Package progress fans decrypt batch progress events out to listeners.
package progress

import (
	"sync"

	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
)

// Ensure Broadcaster implements the interface.
var _ driven.ProgressPublisher = (*Broadcaster)(nil)

// Listener receives progress events over a buffered channel. Events are
// dropped rather than delivered late when the buffer is full.
type Listener struct {
	events chan driven.ProgressEvent
}

// Events returns the listener's event channel.
func (l *Listener) Events() <-chan driven.ProgressEvent {
	return l.events
}

// Broadcaster is a fan-out implementation of driven.ProgressPublisher.
// At-most-once delivery: Publish never blocks on a slow listener.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
}

// NewBroadcaster creates a broadcaster with no listeners.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[*Listener]struct{})}
}

// Subscribe registers a new listener with the given buffer size.
func (b *Broadcaster) Subscribe(buffer int) *Listener {
	if buffer < 1 {
		buffer = 1
	}
	listener := &Listener{events: make(chan driven.ProgressEvent, buffer)}
	b.mu.Lock()
	b.listeners[listener] = struct{}{}
	b.mu.Unlock()
	return listener
}

// Unsubscribe removes a listener and closes its channel.
func (b *Broadcaster) Unsubscribe(listener *Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.listeners[listener]; ok {
		delete(b.listeners, listener)
		close(listener.events)
	}
}

// Publish delivers an event to every listener that has buffer space.
func (b *Broadcaster) Publish(event driven.ProgressEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for listener := range b.listeners {
		select {
		case listener.events <- event:
		default:
			// Listener is behind; drop the event
		}
	}
}
