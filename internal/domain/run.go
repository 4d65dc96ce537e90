package domain

import "time"

// Run represents a tracked unit of work from start to a terminal status.
type Run struct {
	RunID     string         `json:"run_id"`
	ProjectID string         `json:"project_id"`
	Summary   string         `json:"summary"`
	Actor     string         `json:"actor,omitempty"`
	Status    RunStatus      `json:"status"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
	Ctx       map[string]any `json:"ctx,omitempty"`
	Events    []*Event       `json:"events"`
}

// Clone returns a deep copy of the run, including its event list.
func (r *Run) Clone() *Run {
	if r == nil {
		return nil
	}
	c := *r
	if r.EndedAt != nil {
		ended := *r.EndedAt
		c.EndedAt = &ended
	}
	c.Ctx = CloneMap(r.Ctx)
	c.Events = make([]*Event, len(r.Events))
	for i, e := range r.Events {
		c.Events[i] = e.Clone()
	}
	return &c
}
