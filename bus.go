package orderdebug

import (
	"context"
	"sync"
)

// Handler receives one event. Handlers run synchronously on the publishing
// goroutine.
type Handler func(ctx context.Context, ev Event)

// Bus is an in-process dispatcher from event kinds to handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventKind][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[EventKind][]Handler)}
}

// On registers h for kind.
func (b *Bus) On(kind EventKind, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.handlers[kind] = append(b.handlers[kind], h)
	b.mu.Unlock()
}

// Publish delivers ev to every handler of its kind and returns how many ran.
func (b *Bus) Publish(ctx context.Context, ev Event) int {
	if ev == nil {
		return 0
	}
	b.mu.RLock()
	hs := b.handlers[ev.Kind()]
	b.mu.RUnlock()
	for _, h := range hs {
		h(ctx, ev)
	}
	return len(hs)
}

// Handlers returns the number of handlers registered for kind.
func (b *Bus) Handlers(kind EventKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[kind])
}
