package domain

// StartRunRequest starts tracking a new run.
type StartRunRequest struct {
	RunID     string         `json:"run_id"`
	ProjectID string         `json:"project_id,omitempty"`
	Summary   string         `json:"summary"`
	Actor     string         `json:"actor,omitempty"`
	Status    string         `json:"status,omitempty"`
	Ctx       map[string]any `json:"ctx,omitempty"`
}

// EndRunRequest moves a run to a terminal status.
type EndRunRequest struct {
	RunID     string         `json:"run_id"`
	ProjectID string         `json:"project_id,omitempty"`
	Status    string         `json:"status,omitempty"` // ok when unset
	Summary   string         `json:"summary,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	Ctx       map[string]any `json:"ctx,omitempty"`
}

// ListRunsQuery filters the run index.
type ListRunsQuery struct {
	ProjectID string `json:"project_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// RunProcessRequest spawns an external command on behalf of a new run.
type RunProcessRequest struct {
	ProjectID string            `json:"project_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Command   string            `json:"command"`
	Cwd       string            `json:"cwd,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
}

// RunProcessResponse acknowledges a spawned process.
type RunProcessResponse struct {
	RunID string `json:"run_id"`
	PID   int    `json:"pid"`
}

// FileDiff is one named-file patch: the file content is the concatenation
// of its hunk lines.
type FileDiff struct {
	Path  string   `json:"path"`
	Hunks []string `json:"hunks"`
}

// ApplyDiffsRequest applies a batch of file patches inside the sandbox.
type ApplyDiffsRequest struct {
	ProjectID string     `json:"project_id,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	Diffs     []FileDiff `json:"diffs"`
	Message   string     `json:"message,omitempty"`
}

// DiffResult is the per-path outcome of an apply batch.
type DiffResult struct {
	Path    string `json:"path"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// ApplyDiffsResponse reports multi-status results: Status is "applied" when
// the batch ran, "pending" when it was queued for approval.
type ApplyDiffsResponse struct {
	Status     string       `json:"status"`
	ApprovalID string       `json:"approval_id,omitempty"`
	Results    []DiffResult `json:"results,omitempty"`
	Applied    int          `json:"applied"`
	Failed     int          `json:"failed"`
}

// IngestTraceRequest merges spans into a trace.
type IngestTraceRequest struct {
	TraceID string  `json:"trace_id"`
	Spans   []*Span `json:"spans"`
}

// ListTracesQuery filters and paginates stored traces. The time bounds are
// inclusive and compared lexically against each trace's started_at.
type ListTracesQuery struct {
	TraceID         string `json:"trace_id,omitempty"`
	StartTimeAfter  string `json:"start_time_after,omitempty"`
	StartTimeBefore string `json:"start_time_before,omitempty"`
	Offset          int    `json:"offset,omitempty"`
	Limit           int    `json:"limit,omitempty"`
}

// TracePage is the pagination envelope for trace listings.
type TracePage struct {
	Data    []*Trace `json:"data"`
	Total   int      `json:"total"`
	Offset  int      `json:"offset"`
	Limit   int      `json:"limit"`
	HasMore bool     `json:"has_more"`
}

// DecideApprovalRequest resolves a pending approval.
type DecideApprovalRequest struct {
	ApprovalID string `json:"approval_id"`
	Decision   string `json:"decision"` // approve or deny
	DecidedBy  string `json:"decided_by,omitempty"`
}

// UpdatePolicyRequest merges a partial policy into the current config.
type UpdatePolicyRequest struct {
	Mode      string            `json:"mode,omitempty"`
	Approvals map[string]string `json:"approvals,omitempty"`
}

// PerformRequest schedules a sequence of say items against the current
// session settings.
type PerformRequest struct {
	ProjectID string    `json:"project_id,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Items     []SayItem `json:"items"`
}

// PerformResponse carries the built timeline and its packing metrics.
type PerformResponse struct {
	Timeline []ScheduledWord `json:"timeline"`
	Metrics  ScheduleMetrics `json:"metrics"`
}

// ScheduleMetrics summarizes how tightly a timeline is packed.
type ScheduleMetrics struct {
	Count     int      `json:"count"`
	MinGapMs  float64  `json:"min_gap_ms"`
	MeanGapMs float64  `json:"mean_gap_ms"`
	TotalMs   float64  `json:"total_ms"`
	Warnings  []string `json:"warnings,omitempty"`
}

// UpdateSessionRequest adjusts the live session. Nil fields keep their
// current value. Theme changes honor the bar-lock setting.
type UpdateSessionRequest struct {
	BPM         *float64 `json:"bpm,omitempty"`
	TimeSigNum  *int     `json:"time_sig_num,omitempty"`
	TimeSigDen  *int     `json:"time_sig_den,omitempty"`
	Subdivision *int     `json:"subdivision,omitempty"`
	HumanizeMs  *float64 `json:"humanize_ms,omitempty"`
	PaceBias    *float64 `json:"pace_bias,omitempty"`
	Theme       *string  `json:"theme,omitempty"`
	BarLock     *bool    `json:"bar_lock,omitempty"`
}
