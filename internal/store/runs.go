package store

import (
	"sort"
	"sync"
	"time"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

// RunStore is the run lifecycle manager: one record per run id, created by
// a run.start event, finalized by run.end, with a derived per-project
// index. It is wired as an event-log subscriber at startup.
type RunStore struct {
	mu       sync.RWMutex
	runs     map[string]*domain.Run
	projects map[string][]string // projectID -> run ids, insertion order
}

// NewRunStore creates an empty run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs:     make(map[string]*domain.Run),
		projects: make(map[string][]string),
	}
}

// StartRun creates (or replaces) the run record seeded with the given
// run.start event. The payload must carry run_id and summary.
func (s *RunStore) StartRun(event *domain.Event) error {
	runID := event.RunID()
	summary, _ := event.Payload["summary"].(string)
	if runID == "" {
		return domain.Errf(domain.KindValidation, "run.start payload missing run_id")
	}
	if summary == "" {
		return domain.Errf(domain.KindValidation, "run.start payload missing summary")
	}
	status := domain.RunStatusRunning
	if raw, ok := event.Payload["status"].(string); ok {
		parsed, err := domain.ParseRunStatus(raw)
		if err != nil {
			return domain.Errf(domain.KindValidation, "%v", err)
		}
		status = parsed
	}
	projectID := event.ProjectID()

	run := &domain.Run{
		RunID:     runID,
		ProjectID: projectID,
		Summary:   summary,
		Actor:     event.Actor,
		Status:    status,
		StartedAt: event.At,
		Events:    []*domain.Event{event.Clone()},
	}
	if ctx, ok := event.Payload["ctx"].(map[string]any); ok {
		run.Ctx = domain.CloneMap(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.runs[runID]; ok {
		// Replacing an existing record: drop it from its old project lane.
		s.removeFromProject(prev.ProjectID, runID)
	}
	s.runs[runID] = run
	s.projects[projectID] = append(s.projects[projectID], runID)
	return nil
}

// AppendRunEvent appends an event to an existing run's event list.
func (s *RunStore) AppendRunEvent(runID string, event *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return domain.Errf(domain.KindUnknownRun, "run %s not found", runID)
	}
	run.Events = append(run.Events, event.Clone())
	return nil
}

// EndRun moves a run to a terminal status from a run.end event, stamping
// ended_at, optionally merging ctx and overwriting the summary. Terminal
// states are sticky: a duplicate run.end still appends the event to the
// record but changes nothing else. This absorbs the cancel-vs-natural-exit
// race, where both ends are emitted for the same run id.
func (s *RunStore) EndRun(event *domain.Event) error {
	runID := event.RunID()
	if runID == "" {
		return domain.Errf(domain.KindValidation, "run.end payload missing run_id")
	}
	status := domain.RunStatusOK
	if raw, ok := event.Payload["status"].(string); ok && raw != "" {
		parsed, err := domain.ParseRunStatus(raw)
		if err != nil {
			return domain.Errf(domain.KindValidation, "%v", err)
		}
		status = parsed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return domain.Errf(domain.KindUnknownRun, "run %s not found", runID)
	}
	run.Events = append(run.Events, event.Clone())
	if run.Status.IsTerminal() {
		return nil
	}
	run.Status = status
	ended := event.At
	if ended.IsZero() {
		ended = time.Now()
	}
	run.EndedAt = &ended
	if summary, ok := event.Payload["summary"].(string); ok && summary != "" {
		run.Summary = summary
	}
	if ctx, ok := event.Payload["ctx"].(map[string]any); ok {
		if run.Ctx == nil {
			run.Ctx = make(map[string]any, len(ctx))
		}
		for k, v := range domain.CloneMap(ctx) {
			run.Ctx[k] = v
		}
	}
	return nil
}

// Get returns a clone of one run, or nil when the id is unknown.
func (s *RunStore) Get(runID string) *domain.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs[runID].Clone()
}

// List returns cloned runs sorted by started_at descending. A project
// filter restricts to that project's lane; otherwise all projects are
// flattened together.
func (s *RunStore) List(q domain.ListRunsQuery) []*domain.Run {
	s.mu.RLock()
	var out []*domain.Run
	if q.ProjectID != "" {
		for _, id := range s.projects[q.ProjectID] {
			out = append(out, s.runs[id].Clone())
		}
	} else {
		for _, run := range s.runs {
			out = append(out, run.Clone())
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// removeFromProject drops a run id from a project lane. Caller holds the
// lock.
func (s *RunStore) removeFromProject(projectID, runID string) {
	lane := s.projects[projectID]
	for i, id := range lane {
		if id == runID {
			s.projects[projectID] = append(lane[:i], lane[i+1:]...)
			return
		}
	}
}
