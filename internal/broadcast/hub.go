// Package broadcast fans out stream events to connected observers.
package broadcast

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

// subscriber is one observer with its own buffered queue. A slow observer
// drops frames instead of blocking the producer.
type subscriber struct {
	id      string
	ch      chan domain.StreamEvent
	dropped atomic.Int64
}

// Hub delivers every published stream event to every subscriber. Publish
// never blocks: when a subscriber's buffer is full the frame is dropped for
// that subscriber only.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]*subscriber
	bufSize int
}

// NewHub creates a hub whose subscribers buffer up to bufSize frames.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &Hub{
		subs:    make(map[string]*subscriber),
		bufSize: bufSize,
	}
}

// Subscribe registers an observer. The returned channel carries every
// published frame until the unsubscribe function is called, which closes
// the channel.
func (h *Hub) Subscribe() (<-chan domain.StreamEvent, func()) {
	sub := &subscriber{
		id: uuid.New().String(),
		ch: make(chan domain.StreamEvent, h.bufSize),
	}
	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		s, ok := h.subs[sub.id]
		if ok {
			delete(h.subs, sub.id)
			close(s.ch)
		}
		h.mu.Unlock()
		if ok {
			if n := s.dropped.Load(); n > 0 {
				slog.Warn("subscriber dropped frames", "subscriber", s.id, "dropped", n)
			}
		}
	}
	return sub.ch, unsubscribe
}

// Publish fans the frame out to all subscribers without blocking.
func (h *Hub) Publish(ev domain.StreamEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			sub.dropped.Add(1)
		}
	}
}

// SubscriberCount returns the number of connected observers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
