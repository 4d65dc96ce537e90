package domain

// SayItem is one timed utterance in a performance script. Exactly one of
// AtMs / Beat anchors it explicitly; with neither, it follows its
// predecessor on the running cursor.
type SayItem struct {
	Text string   `json:"text"`
	AtMs *float64 `json:"at_ms,omitempty"`
	Beat *float64 `json:"beat,omitempty"`
	Pace float64  `json:"pace,omitempty"` // 1.0 when unset
}

// ScheduledWord is a say item placed on the absolute performance timeline.
// Derived, never persisted.
type ScheduledWord struct {
	Word       SayItem `json:"word"`
	OffsetMs   float64 `json:"offset_ms"`
	DurationMs float64 `json:"duration_ms"`
}

// SessionState is the live tempo/quantization settings a performance runs
// under.
type SessionState struct {
	BPM         float64 `json:"bpm"`
	TimeSigNum  int     `json:"time_sig_num"`
	TimeSigDen  int     `json:"time_sig_den"`
	Subdivision int     `json:"subdivision"` // grid notes per whole note, 16 = sixteenths
	HumanizeMs  float64 `json:"humanize_ms"`
	PaceBias    float64 `json:"pace_bias"`
	Theme       string  `json:"theme,omitempty"`
	BarLock     bool    `json:"bar_lock"`
}

// DefaultSessionState is the session every runtime starts from: 120 BPM,
// 4/4, sixteenth-note grid, no humanize, neutral pace.
func DefaultSessionState() SessionState {
	return SessionState{
		BPM:         120,
		TimeSigNum:  4,
		TimeSigDen:  4,
		Subdivision: 16,
		PaceBias:    1,
	}
}

// MsPerBeat converts the session tempo to milliseconds per beat.
func (s SessionState) MsPerBeat() float64 {
	if s.BPM <= 0 {
		return 0
	}
	return 60000 / s.BPM
}

// BarMs is the length of one bar in milliseconds.
func (s SessionState) BarMs() float64 {
	if s.TimeSigNum <= 0 {
		return 0
	}
	return s.MsPerBeat() * float64(s.TimeSigNum)
}
