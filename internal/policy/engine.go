// Package policy evaluates the chat access policy with OPA.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine wraps a prepared rego query over the chat access policy.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine compiles the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.chat_policy.allow"),
		rego.Module("chat_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}
	return &Engine{query: query}, nil
}

// Allow reports whether a user with the given role and chat flag may use
// the coach chat.
func (e *Engine) Allow(ctx context.Context, role string, chatEnabled bool) (bool, error) {
	input := map[string]interface{}{
		"role":         role,
		"chat_enabled": chatEnabled,
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy returned non-boolean decision")
	}
	return allowed, nil
}

// DefaultPolicy is the shipped chat access policy: members need the chat
// flag on their subscription; admins always have access for support.
const DefaultPolicy = `
package chat_policy

import rego.v1

default allow := false

allow if {
	input.chat_enabled
	input.role in {"normal_user", "sub_admin"}
}

allow if input.role == "admin"
`
