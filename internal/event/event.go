// Package event is a synchronous, in-process event dispatcher.
//
// Producers define their own event types; each names itself with the
// wire-style identifier consumers switch on ("item.add", "branch", ...).
package event

import "sync"

// Event is implemented by every emitted value.
type Event interface {
	EventName() string
}

// Handler receives events.
type Handler func(Event)

// Bus dispatches events to subscribers in the emitting goroutine.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]Handler
	order    []int
	closed   bool
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers h and returns a function that removes it.
// Subscribing to a closed bus is a no-op.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || h == nil {
		return func() {}
	}
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.order = append(b.order, id)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.handlers[id]; !ok {
			return
		}
		delete(b.handlers, id)
		for i, o := range b.order {
			if o == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Emit delivers e to every subscriber in subscription order.
func (b *Bus) Emit(e Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	hs := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		hs = append(hs, b.handlers[id])
	}
	b.mu.Unlock()

	for _, h := range hs {
		h(e)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// Close detaches every subscriber. Later emits are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = make(map[int]Handler)
	b.order = nil
}
