package domain

// PolicyConfig holds the operating mode and per-capability approval rules
// for one project scope. A capability absent from Approvals falls back to
// the mode's default rule.
type PolicyConfig struct {
	Mode      Mode                `json:"mode"`
	Approvals map[Capability]Rule `json:"approvals"`
}

// Clone returns a copy with its own approvals map.
func (p *PolicyConfig) Clone() *PolicyConfig {
	c := *p
	c.Approvals = make(map[Capability]Rule, len(p.Approvals))
	for k, v := range p.Approvals {
		c.Approvals[k] = v
	}
	return &c
}

// Merge applies a partial update field-level: a non-empty mode replaces the
// current mode, listed capabilities replace their rules, everything else is
// kept.
func (p *PolicyConfig) Merge(mode Mode, approvals map[Capability]Rule) {
	if mode != "" {
		p.Mode = mode
	}
	if p.Approvals == nil {
		p.Approvals = make(map[Capability]Rule)
	}
	for cap, rule := range approvals {
		p.Approvals[cap] = rule
	}
}
