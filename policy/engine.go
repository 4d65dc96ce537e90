// Package policy evaluates capability approval rules with OPA.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

// Engine is the OPA policy engine. It resolves a capability to its approval
// rule: an explicit per-capability override wins, otherwise the operating
// mode's default applies.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a policy engine from the given rego policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.prism.capability.decision"),
		rego.Module("capability_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate resolves the approval rule for one capability under the given
// mode. A non-empty override short-circuits the mode defaults.
func (e *Engine) Evaluate(ctx context.Context, mode domain.Mode, capability domain.Capability, override domain.Rule) (domain.Rule, error) {
	input := map[string]any{
		"mode":       string(mode),
		"capability": string(capability),
		"override":   string(override),
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy defines a default, so an empty result means the
		// module itself is broken. Fail closed.
		return domain.RuleForbid, nil
	}
	s, ok := results[0].Expressions[0].Value.(string)
	if !ok {
		return domain.RuleForbid, nil
	}
	rule, err := domain.ParseRule(s)
	if err != nil {
		return "", fmt.Errorf("policy returned %q: %w", s, err)
	}
	return rule, nil
}

// DefaultPolicy encodes the mode-default approval rules. Review is the
// fallback for anything the table does not cover.
const DefaultPolicy = `
package prism.capability

import rego.v1

default decision := "review"

decision := input.override if input.override != ""

decision := defaults[input.mode][input.capability] if input.override == ""

defaults := {
	"playground": {
		"read": "auto", "write": "auto", "exec": "auto", "net": "auto",
		"secrets": "review", "dns": "auto", "deploy": "forbid",
	},
	"dev": {
		"read": "auto", "write": "auto", "exec": "review", "net": "auto",
		"secrets": "review", "dns": "review", "deploy": "review",
	},
	"trusted": {
		"read": "auto", "write": "auto", "exec": "auto", "net": "auto",
		"secrets": "review", "dns": "auto", "deploy": "review",
	},
	"prod": {
		"read": "auto", "write": "review", "exec": "review", "net": "review",
		"secrets": "forbid", "dns": "review", "deploy": "review",
	},
}
`
