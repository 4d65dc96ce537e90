package service

import (
	"time"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/schedule"
)

// Session returns the current session settings.
func (s *Service) Session() domain.SessionState {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	return s.session
}

// UpdateSession adjusts the live session. Tempo, quantization and pace
// changes apply immediately. A theme change honors bar-lock: when locked it
// is deferred to the next downbeat, and a newer deferred change cancels any
// older one still pending.
func (s *Service) UpdateSession(req domain.UpdateSessionRequest) (domain.SessionState, error) {
	if req.BPM != nil && *req.BPM <= 0 {
		return domain.SessionState{}, domain.Errf(domain.KindValidation, "bpm must be positive")
	}
	if req.TimeSigNum != nil && *req.TimeSigNum <= 0 {
		return domain.SessionState{}, domain.Errf(domain.KindValidation, "time_sig_num must be positive")
	}
	if req.TimeSigDen != nil && *req.TimeSigDen <= 0 {
		return domain.SessionState{}, domain.Errf(domain.KindValidation, "time_sig_den must be positive")
	}
	if req.Subdivision != nil && *req.Subdivision <= 0 {
		return domain.SessionState{}, domain.Errf(domain.KindValidation, "subdivision must be positive")
	}
	if req.HumanizeMs != nil && *req.HumanizeMs < 0 {
		return domain.SessionState{}, domain.Errf(domain.KindValidation, "humanize_ms must not be negative")
	}
	if req.PaceBias != nil && *req.PaceBias <= 0 {
		return domain.SessionState{}, domain.Errf(domain.KindValidation, "pace_bias must be positive")
	}

	s.sessionMu.Lock()
	if req.BPM != nil {
		s.session.BPM = *req.BPM
	}
	if req.TimeSigNum != nil {
		s.session.TimeSigNum = *req.TimeSigNum
	}
	if req.TimeSigDen != nil {
		s.session.TimeSigDen = *req.TimeSigDen
	}
	if req.Subdivision != nil {
		s.session.Subdivision = *req.Subdivision
	}
	if req.HumanizeMs != nil {
		s.session.HumanizeMs = *req.HumanizeMs
	}
	if req.PaceBias != nil {
		s.session.PaceBias = *req.PaceBias
	}
	if req.BarLock != nil {
		s.session.BarLock = *req.BarLock
	}

	deferTheme := req.Theme != nil && s.session.BarLock
	if req.Theme != nil && !deferTheme {
		s.session.Theme = *req.Theme
	}
	if deferTheme {
		s.deferThemeLocked(*req.Theme)
	}
	state := s.session
	s.sessionMu.Unlock()

	s.recordEvent(domain.TopicSessionUpdate, "", domain.SessionUpdatePayload{
		Session:  state,
		Deferred: deferTheme,
	}.AsMap())
	return state, nil
}

// deferThemeLocked schedules a theme change for the next bar boundary,
// computed from the current tempo and time signature. Caller holds
// sessionMu.
func (s *Service) deferThemeLocked(theme string) {
	if s.pendingTheme != nil {
		s.pendingTheme.Stop()
	}
	elapsed := time.Since(s.sessionEpoch)
	delay := schedule.NextDownbeat(elapsed, s.session) - elapsed
	if delay < 0 {
		delay = 0
	}
	s.pendingTheme = time.AfterFunc(delay, func() {
		s.sessionMu.Lock()
		s.session.Theme = theme
		s.pendingTheme = nil
		state := s.session
		s.sessionMu.Unlock()

		s.recordEvent(domain.TopicSessionUpdate, "", domain.SessionUpdatePayload{
			Session: state,
		}.AsMap())
	})
}
