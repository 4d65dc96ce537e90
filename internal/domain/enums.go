// Package domain defines the core domain models for the Prism runtime.
package domain

import "fmt"

// RunStatus represents the lifecycle status of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusOK        RunStatus = "ok"
	RunStatusError     RunStatus = "error"
	RunStatusCancelled RunStatus = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusOK, RunStatusError, RunStatusCancelled:
		return true
	}
	return false
}

// ParseRunStatus validates a run status string, defaulting empty to running.
func ParseRunStatus(s string) (RunStatus, error) {
	switch RunStatus(s) {
	case "":
		return RunStatusRunning, nil
	case RunStatusRunning, RunStatusOK, RunStatusError, RunStatusCancelled:
		return RunStatus(s), nil
	}
	return "", fmt.Errorf("unknown run status %q", s)
}

// ApprovalStatus represents the status of an approval record.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusDenied   ApprovalStatus = "denied"
)

// Capability names a class of risky action subject to policy.
type Capability string

const (
	CapabilityRead    Capability = "read"
	CapabilityWrite   Capability = "write"
	CapabilityExec    Capability = "exec"
	CapabilityNet     Capability = "net"
	CapabilitySecrets Capability = "secrets"
	CapabilityDNS     Capability = "dns"
	CapabilityDeploy  Capability = "deploy"
)

// Capabilities is the closed set of recognized capability names.
var Capabilities = []Capability{
	CapabilityRead,
	CapabilityWrite,
	CapabilityExec,
	CapabilityNet,
	CapabilitySecrets,
	CapabilityDNS,
	CapabilityDeploy,
}

// ParseCapability validates a capability name.
func ParseCapability(s string) (Capability, error) {
	for _, c := range Capabilities {
		if Capability(s) == c {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown capability %q", s)
}

// Mode is the operating mode of a project scope.
type Mode string

const (
	ModePlayground Mode = "playground"
	ModeDev        Mode = "dev"
	ModeTrusted    Mode = "trusted"
	ModeProd       Mode = "prod"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePlayground, ModeDev, ModeTrusted, ModeProd:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Rule is the approval rule applied to a capability.
type Rule string

const (
	RuleAuto   Rule = "auto"
	RuleReview Rule = "review"
	RuleForbid Rule = "forbid"
)

// ParseRule validates an approval rule name.
func ParseRule(s string) (Rule, error) {
	switch Rule(s) {
	case RuleAuto, RuleReview, RuleForbid:
		return Rule(s), nil
	}
	return "", fmt.Errorf("unknown approval rule %q", s)
}

// Event topics emitted by the runtime.
const (
	TopicRunStart      = "run.start"
	TopicRunEnd        = "run.end"
	TopicRunOut        = "run.out"
	TopicRunErr        = "run.err"
	TopicFileWrite     = "file.write"
	TopicPlan          = "plan"
	TopicTimeline      = "timeline"
	TopicSessionUpdate = "session.update"
)
