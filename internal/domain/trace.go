package domain

import "time"

// Span is a timed unit of work inside a trace. Timestamps are ISO-8601
// strings as delivered by instrumentation; list/tree ordering and the
// time-window filters compare them lexically.
type Span struct {
	SpanID       string         `json:"span_id"`
	ParentSpanID string         `json:"parent_span_id,omitempty"`
	TraceID      string         `json:"trace_id"`
	StartTs      string         `json:"start_ts"`
	EndTs        string         `json:"end_ts,omitempty"`
	Attrs        map[string]any `json:"attrs,omitempty"`
	Links        []any          `json:"links,omitempty"`
}

// Clone returns a deep copy of the span.
func (s *Span) Clone() *Span {
	if s == nil {
		return nil
	}
	c := *s
	c.Attrs = CloneMap(s.Attrs)
	if s.Links != nil {
		c.Links = make([]any, len(s.Links))
		for i, l := range s.Links {
			c.Links[i] = cloneValue(l)
		}
	}
	return &c
}

// DurationMs derives the span duration, zero-floored. Returns 0, false when
// either endpoint is missing or unparseable.
func (s *Span) DurationMs() (float64, bool) {
	if s.StartTs == "" || s.EndTs == "" {
		return 0, false
	}
	start, err := time.Parse(time.RFC3339Nano, s.StartTs)
	if err != nil {
		return 0, false
	}
	end, err := time.Parse(time.RFC3339Nano, s.EndTs)
	if err != nil {
		return 0, false
	}
	ms := float64(end.Sub(start)) / float64(time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	return ms, true
}

// Trace groups all spans sharing a trace id.
type Trace struct {
	TraceID    string    `json:"trace_id"`
	Spans      []*Span   `json:"spans"`
	StartedAt  string    `json:"started_at,omitempty"`
	EndedAt    string    `json:"ended_at,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Clone returns a deep copy of the trace.
func (t *Trace) Clone() *Trace {
	if t == nil {
		return nil
	}
	c := *t
	c.Spans = make([]*Span, len(t.Spans))
	for i, s := range t.Spans {
		c.Spans[i] = s.Clone()
	}
	return &c
}

// TraceNode is one node of a reconstructed call tree.
type TraceNode struct {
	Span       *Span        `json:"span"`
	DurationMs *float64     `json:"duration_ms,omitempty"`
	Children   []*TraceNode `json:"children"`
}
