// Package store holds the in-memory stores of the Prism runtime. Every
// store serializes access with its own mutex and hands out deep clones, so
// no caller can mutate stored state through a returned reference.
package store

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

// EventQuery filters the event log.
type EventQuery struct {
	// Topic matches exactly, or as a pattern: "*" matches everything,
	// "run.*" matches every topic under the run prefix.
	Topic string
	Actor string
	// SinceID returns only events appended after the given event id
	// (exclusive). An unknown anchor yields an empty result: the anchor
	// was most likely pruned, which is not a caller fault.
	SinceID string
	Limit   int
	Reverse bool
}

// Subscriber receives a clone of every appended event whose topic matches
// its pattern. Dispatch happens on the appending goroutine, outside the
// log's lock, so handlers may call back into the log but must not block.
type Subscriber func(*domain.Event)

// EventLog is the append-only store of domain events.
type EventLog struct {
	mu     sync.RWMutex
	events []*domain.Event

	maxAge   time.Duration // 0 = unbounded
	maxCount int           // 0 = unbounded

	subMu  sync.RWMutex
	nextID int
	subs   map[int]subscription
}

type subscription struct {
	pattern string
	fn      Subscriber
}

// EventLogOption configures an EventLog.
type EventLogOption func(*EventLog)

// WithEventRetention bounds the log by age and/or count; zero disables a
// bound.
func WithEventRetention(maxAge time.Duration, maxCount int) EventLogOption {
	return func(l *EventLog) {
		l.maxAge = maxAge
		l.maxCount = maxCount
	}
}

// NewEventLog creates an empty event log.
func NewEventLog(opts ...EventLogOption) *EventLog {
	l := &EventLog{subs: make(map[int]subscription)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append stores a defensive clone of the event, assigning an id and
// timestamp when missing, and delivers it to matching subscribers. The
// returned event is the caller's own clone.
func (l *EventLog) Append(event *domain.Event) *domain.Event {
	stored := event.Clone()
	if stored.EventID == "" {
		stored.EventID = "evt_" + uuid.New().String()[:8]
	}
	if stored.At.IsZero() {
		stored.At = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, stored)
	if l.maxCount > 0 && len(l.events) > l.maxCount {
		// Trim oldest entries down to the bound.
		excess := len(l.events) - l.maxCount
		l.events = append([]*domain.Event(nil), l.events[excess:]...)
	}
	l.mu.Unlock()

	l.dispatch(stored)
	return stored.Clone()
}

func (l *EventLog) dispatch(stored *domain.Event) {
	l.subMu.RLock()
	subs := make([]subscription, 0, len(l.subs))
	for _, s := range l.subs {
		subs = append(subs, s)
	}
	l.subMu.RUnlock()

	for _, s := range subs {
		if topicMatches(s.pattern, stored.Topic) {
			s.fn(stored.Clone())
		}
	}
}

// Subscribe registers a handler for every appended event matching the topic
// pattern. The returned function unsubscribes.
func (l *EventLog) Subscribe(pattern string, fn Subscriber) func() {
	l.subMu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = subscription{pattern: pattern, fn: fn}
	l.subMu.Unlock()

	return func() {
		l.subMu.Lock()
		delete(l.subs, id)
		l.subMu.Unlock()
	}
}

// List returns clones of the stored events matching the query, in insertion
// order (or reversed).
func (l *EventLog) List(q EventQuery) []*domain.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := 0
	if q.SinceID != "" {
		found := false
		for i, e := range l.events {
			if e.EventID == q.SinceID {
				start = i + 1
				found = true
				break
			}
		}
		if !found {
			return nil
		}
	}

	var out []*domain.Event
	for _, e := range l.events[start:] {
		if q.Topic != "" && !topicMatches(q.Topic, e.Topic) {
			continue
		}
		if q.Actor != "" && e.Actor != q.Actor {
			continue
		}
		out = append(out, e.Clone())
	}

	if q.Reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// Latest returns a clone of the most recent event, or nil when the log is
// empty.
func (l *EventLog) Latest() *domain.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.events) == 0 {
		return nil
	}
	return l.events[len(l.events)-1].Clone()
}

// Size returns the current event count.
func (l *EventLog) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// PruneAged drops events older than the configured max age, returning the
// number removed. No-op when the age bound is disabled.
func (l *EventLog) PruneAged(now time.Time) int {
	if l.maxAge <= 0 {
		return 0
	}
	cutoff := now.Add(-l.maxAge)

	l.mu.Lock()
	defer l.mu.Unlock()
	// Events are in insertion order, so find the first survivor.
	keep := len(l.events)
	for i, e := range l.events {
		if e.At.After(cutoff) {
			keep = i
			break
		}
	}
	if keep == 0 {
		return 0
	}
	removed := keep
	l.events = append([]*domain.Event(nil), l.events[keep:]...)
	return removed
}

func topicMatches(pattern, topic string) bool {
	if pattern == "*" || pattern == topic {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		return strings.HasPrefix(topic, prefix+".")
	}
	return false
}
