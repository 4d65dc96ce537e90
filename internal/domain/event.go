package domain

import "time"

// Event is an immutable record of a single agent or task action.
type Event struct {
	EventID      string           `json:"event_id"`
	Topic        string           `json:"topic"`
	Actor        string           `json:"actor"`
	At           time.Time        `json:"at"`
	Payload      map[string]any   `json:"payload,omitempty"`
	KPIs         map[string]any   `json:"kpis,omitempty"`
	MemoryDeltas []map[string]any `json:"memory_deltas,omitempty"`
}

// Clone returns a deep copy. Stores hand out clones only, so callers can
// never mutate stored state through a returned reference.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	c.Payload = CloneMap(e.Payload)
	c.KPIs = CloneMap(e.KPIs)
	if e.MemoryDeltas != nil {
		c.MemoryDeltas = make([]map[string]any, len(e.MemoryDeltas))
		for i, d := range e.MemoryDeltas {
			c.MemoryDeltas[i] = CloneMap(d)
		}
	}
	return &c
}

// RunID extracts the run id the event refers to, if any.
func (e *Event) RunID() string {
	if s, ok := e.Payload["run_id"].(string); ok {
		return s
	}
	return ""
}

// ProjectID extracts the project id from the payload, defaulting to "global".
func (e *Event) ProjectID() string {
	if s, ok := e.Payload["project_id"].(string); ok && s != "" {
		return s
	}
	return "global"
}

// CloneMap deep-copies a payload map. Nested maps and slices are copied;
// scalar values are shared, which is safe because they are immutable.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i] = CloneMap(e)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}
