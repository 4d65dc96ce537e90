package store

import (
	"sort"
	"sync"
	"time"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

// TraceStore ingests distributed trace spans keyed by trace id, merging
// duplicate spans so partial or repeated delivery converges on one record.
type TraceStore struct {
	mu     sync.RWMutex
	traces map[string]*domain.Trace
	order  []string // trace ids in first-ingest order

	maxAge   time.Duration
	maxCount int

	now func() time.Time
}

// TraceStoreOption configures a TraceStore.
type TraceStoreOption func(*TraceStore)

// WithTraceRetention bounds stored traces by age and/or count; zero
// disables a bound. Age is measured against each trace's last ingest time,
// not its span timestamps, so a trace that backfills old spans is not
// immediately evicted.
func WithTraceRetention(maxAge time.Duration, maxCount int) TraceStoreOption {
	return func(s *TraceStore) {
		s.maxAge = maxAge
		s.maxCount = maxCount
	}
}

// WithTraceClock overrides the wall clock, for tests.
func WithTraceClock(now func() time.Time) TraceStoreOption {
	return func(s *TraceStore) { s.now = now }
}

// NewTraceStore creates an empty trace store.
func NewTraceStore(opts ...TraceStoreOption) *TraceStore {
	s := &TraceStore{
		traces: make(map[string]*domain.Trace),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest merges the given spans into the trace, creating it on first sight,
// and returns a clone of the updated record. Spans sharing a span id merge
// field-level, later ingest winning, so ingesting the same set twice is a
// no-op.
func (s *TraceStore) Ingest(traceID string, spans []*domain.Span) (*domain.Trace, error) {
	if traceID == "" {
		return nil, domain.Errf(domain.KindValidation, "trace_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.traces[traceID]
	if !ok {
		tr = &domain.Trace{TraceID: traceID}
		s.traces[traceID] = tr
		s.order = append(s.order, traceID)
	}
	tr.ReceivedAt = s.now()

	index := make(map[string]*domain.Span, len(tr.Spans))
	for _, sp := range tr.Spans {
		index[sp.SpanID] = sp
	}
	for _, incoming := range spans {
		if incoming == nil || incoming.SpanID == "" {
			continue
		}
		existing, ok := index[incoming.SpanID]
		if !ok {
			c := incoming.Clone()
			c.TraceID = traceID
			tr.Spans = append(tr.Spans, c)
			index[c.SpanID] = c
			continue
		}
		mergeSpan(existing, incoming)
	}

	// Primary order is start_ts; ties keep their original ingest order.
	sort.SliceStable(tr.Spans, func(i, j int) bool {
		return tr.Spans[i].StartTs < tr.Spans[j].StartTs
	})

	tr.StartedAt = ""
	for _, sp := range tr.Spans {
		if sp.StartTs == "" {
			continue
		}
		if tr.StartedAt == "" || sp.StartTs < tr.StartedAt {
			tr.StartedAt = sp.StartTs
		}
	}
	// ended_at never regresses: a re-ingested span that lost its end_ts
	// cannot pull the trace end backwards.
	for _, sp := range tr.Spans {
		if sp.EndTs != "" && sp.EndTs > tr.EndedAt {
			tr.EndedAt = sp.EndTs
		}
	}

	s.trimLocked()
	return tr.Clone(), nil
}

func mergeSpan(dst, src *domain.Span) {
	if src.ParentSpanID != "" {
		dst.ParentSpanID = src.ParentSpanID
	}
	if src.StartTs != "" {
		dst.StartTs = src.StartTs
	}
	if src.EndTs != "" {
		dst.EndTs = src.EndTs
	}
	if src.Attrs != nil {
		dst.Attrs = domain.CloneMap(src.Attrs)
	}
	if src.Links != nil {
		dst.Links = src.Clone().Links
	}
}

// Get returns a clone of one trace, or nil when the id is unknown.
func (s *TraceStore) Get(traceID string) *domain.Trace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.traces[traceID].Clone()
}

// List filters and paginates stored traces, wrapped in the standard
// envelope. Time bounds are inclusive, compared lexically against each
// trace's started_at.
func (s *TraceStore) List(q domain.ListTracesQuery) *domain.TracePage {
	s.mu.RLock()
	var matched []*domain.Trace
	for _, id := range s.order {
		tr := s.traces[id]
		if q.TraceID != "" && tr.TraceID != q.TraceID {
			continue
		}
		if q.StartTimeAfter != "" && tr.StartedAt < q.StartTimeAfter {
			continue
		}
		if q.StartTimeBefore != "" && tr.StartedAt > q.StartTimeBefore {
			continue
		}
		matched = append(matched, tr)
	}
	page := &domain.TracePage{
		Total:  len(matched),
		Offset: q.Offset,
		Limit:  q.Limit,
	}
	start := q.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	for _, tr := range matched[start:end] {
		page.Data = append(page.Data, tr.Clone())
	}
	s.mu.RUnlock()

	page.HasMore = end < page.Total
	return page
}

// Tree reconstructs the call forest of one trace: spans with no parent are
// roots, children are sorted by start_ts (stable), and nodes with an end
// timestamp carry a derived duration.
func (s *TraceStore) Tree(traceID string) ([]*domain.TraceNode, error) {
	s.mu.RLock()
	tr := s.traces[traceID].Clone()
	s.mu.RUnlock()
	if tr == nil {
		return nil, domain.Errf(domain.KindUnknownTrace, "trace %s not found", traceID)
	}

	nodes := make(map[string]*domain.TraceNode, len(tr.Spans))
	var roots []*domain.TraceNode
	for _, sp := range tr.Spans {
		node := &domain.TraceNode{Span: sp, Children: []*domain.TraceNode{}}
		if ms, ok := sp.DurationMs(); ok {
			node.DurationMs = &ms
		}
		nodes[sp.SpanID] = node
	}
	// Spans are already in start_ts order, which child lists inherit.
	for _, sp := range tr.Spans {
		node := nodes[sp.SpanID]
		if sp.ParentSpanID == "" {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[sp.ParentSpanID]; ok {
			parent.Children = append(parent.Children, node)
		} else {
			// Orphaned span: its parent never arrived. Treat as a root.
			roots = append(roots, node)
		}
	}
	return roots, nil
}

// Size returns the number of stored traces.
func (s *TraceStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.traces)
}

// PruneAged drops traces whose last ingest is older than the configured max
// age, returning the number removed.
func (s *TraceStore) PruneAged(now time.Time) int {
	if s.maxAge <= 0 {
		return 0
	}
	cutoff := now.Add(-s.maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	kept := s.order[:0]
	for _, id := range s.order {
		if s.traces[id].ReceivedAt.Before(cutoff) {
			delete(s.traces, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

// trimLocked enforces the count bound, evicting least-recently-ingested
// traces first. Caller holds the lock.
func (s *TraceStore) trimLocked() {
	if s.maxCount <= 0 || len(s.traces) <= s.maxCount {
		return
	}
	byAge := append([]string(nil), s.order...)
	sort.SliceStable(byAge, func(i, j int) bool {
		return s.traces[byAge[i]].ReceivedAt.Before(s.traces[byAge[j]].ReceivedAt)
	})
	evict := make(map[string]bool)
	for _, id := range byAge[:len(byAge)-s.maxCount] {
		evict[id] = true
		delete(s.traces, id)
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if !evict[id] {
			kept = append(kept, id)
		}
	}
	s.order = kept
}
