package propagate

import (
	"context"
	"sync"
)

// MemoryTransport is the in-process transport for directly related
// execution contexts (and for tests). It retains the last published event
// so late subscribers can run the same pending-update check as on the
// shared channel.
type MemoryTransport struct {
	mu     sync.RWMutex
	subs   map[uint64]func(Event)
	nextID uint64
	last   *Event
	closed bool
}

func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{subs: make(map[uint64]func(Event))}
}

func (t *MemoryTransport) Publish(_ context.Context, e Event) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.last = &e
	handlers := make([]func(Event), 0, len(t.subs))
	for _, h := range t.subs {
		handlers = append(handlers, h)
	}
	t.mu.Unlock()

	// Deliver outside the lock; handlers may publish in turn.
	for _, h := range handlers {
		h(e)
	}
	return nil
}

func (t *MemoryTransport) Subscribe(handler func(Event)) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID
	t.subs[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subs, id)
		})
	}, nil
}

func (t *MemoryTransport) Pending(context.Context) (*Event, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.last == nil {
		return nil, nil
	}
	e := *t.last
	return &e, nil
}

func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.subs = make(map[uint64]func(Event))
	return nil
}
