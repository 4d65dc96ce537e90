package service

import (
	"time"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/store"
)

// recordEvent appends a domain event to the log. The log assigns the id,
// clones the payload, and republishes to the run manager and the hub.
func (s *Service) recordEvent(topic, actor string, payload map[string]any) *domain.Event {
	return s.log.Append(&domain.Event{
		Topic:   topic,
		Actor:   actor,
		At:      time.Now(),
		Payload: payload,
	})
}

// Events lists log events for observers.
func (s *Service) Events(q store.EventQuery) []*domain.Event {
	return s.log.List(q)
}

// LatestEvent returns the most recent event, or nil on an empty log.
func (s *Service) LatestEvent() *domain.Event {
	return s.log.Latest()
}

// EventCount returns the current log size.
func (s *Service) EventCount() int {
	return s.log.Size()
}
