package domain

// Typed payloads for the topics this runtime emits itself. They are
// converted to maps at the event-log boundary; free-form caller data (run
// ctx, span attrs) stays an open map.

// RunStartPayload seeds a run record.
type RunStartPayload struct {
	RunID     string
	ProjectID string
	Summary   string
	Status    RunStatus
	Ctx       map[string]any
}

func (p RunStartPayload) AsMap() map[string]any {
	m := map[string]any{
		"run_id":  p.RunID,
		"summary": p.Summary,
	}
	if p.ProjectID != "" {
		m["project_id"] = p.ProjectID
	}
	if p.Status != "" {
		m["status"] = string(p.Status)
	}
	if p.Ctx != nil {
		m["ctx"] = p.Ctx
	}
	return m
}

// RunEndPayload finalizes a run record.
type RunEndPayload struct {
	RunID      string
	ProjectID  string
	Status     RunStatus
	Summary    string
	Ctx        map[string]any
	ExitCode   *int
	DurationMs *float64
}

func (p RunEndPayload) AsMap() map[string]any {
	m := map[string]any{
		"run_id": p.RunID,
		"status": string(p.Status),
	}
	if p.ProjectID != "" {
		m["project_id"] = p.ProjectID
	}
	if p.Summary != "" {
		m["summary"] = p.Summary
	}
	if p.Ctx != nil {
		m["ctx"] = p.Ctx
	}
	if p.ExitCode != nil {
		m["exit_code"] = *p.ExitCode
	}
	if p.DurationMs != nil {
		m["duration_ms"] = *p.DurationMs
	}
	return m
}

// RunChunkPayload is one stdout/stderr chunk from a spawned process.
type RunChunkPayload struct {
	RunID     string
	ProjectID string
	Chunk     string
}

func (p RunChunkPayload) AsMap() map[string]any {
	m := map[string]any{
		"run_id": p.RunID,
		"chunk":  p.Chunk,
	}
	if p.ProjectID != "" {
		m["project_id"] = p.ProjectID
	}
	return m
}

// FileWritePayload records one sandbox file written by the diff applier.
type FileWritePayload struct {
	ProjectID string
	SessionID string
	Path      string
	Bytes     int
	Message   string
}

func (p FileWritePayload) AsMap() map[string]any {
	m := map[string]any{
		"path":  p.Path,
		"bytes": p.Bytes,
	}
	if p.ProjectID != "" {
		m["project_id"] = p.ProjectID
	}
	if p.SessionID != "" {
		m["session_id"] = p.SessionID
	}
	if p.Message != "" {
		m["message"] = p.Message
	}
	return m
}

// PlanPayload announces a deferred action awaiting approval.
type PlanPayload struct {
	ApprovalID string
	Capability Capability
}

func (p PlanPayload) AsMap() map[string]any {
	return map[string]any{
		"approval_id": p.ApprovalID,
		"capability":  string(p.Capability),
	}
}

// TimelinePayload carries a built performance timeline.
type TimelinePayload struct {
	ProjectID string
	Timeline  []ScheduledWord
	Metrics   ScheduleMetrics
}

func (p TimelinePayload) AsMap() map[string]any {
	words := make([]map[string]any, len(p.Timeline))
	for i, w := range p.Timeline {
		words[i] = map[string]any{
			"text":        w.Word.Text,
			"offset_ms":   w.OffsetMs,
			"duration_ms": w.DurationMs,
		}
	}
	m := map[string]any{
		"timeline":    words,
		"count":       p.Metrics.Count,
		"min_gap_ms":  p.Metrics.MinGapMs,
		"mean_gap_ms": p.Metrics.MeanGapMs,
		"total_ms":    p.Metrics.TotalMs,
	}
	if p.ProjectID != "" {
		m["project_id"] = p.ProjectID
	}
	return m
}

// SessionUpdatePayload broadcasts applied session settings.
type SessionUpdatePayload struct {
	Session  SessionState
	Deferred bool
}

func (p SessionUpdatePayload) AsMap() map[string]any {
	return map[string]any{
		"bpm":          p.Session.BPM,
		"time_sig_num": p.Session.TimeSigNum,
		"time_sig_den": p.Session.TimeSigDen,
		"subdivision":  p.Session.Subdivision,
		"humanize_ms":  p.Session.HumanizeMs,
		"pace_bias":    p.Session.PaceBias,
		"theme":        p.Session.Theme,
		"bar_lock":     p.Session.BarLock,
		"deferred":     p.Deferred,
	}
}
