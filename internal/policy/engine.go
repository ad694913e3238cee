// Package policy gates live run starts through an OPA policy.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.dashboard_policy.decision"),
		rego.Module("dashboard_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the run admission policy.
// Input is a map with keys: requirement, max_rounds, config_path.
// Returns the decision (allow or deny).
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy defines a default, so this should not happen.
		return "allow", nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return "allow", nil
}

// DefaultPolicy is the default run admission policy.
const DefaultPolicy = `
package dashboard_policy

import rego.v1

default decision := "allow"

# Cap the debate length a watcher can request.
decision := "deny" if {
	input.max_rounds > 20
}

# Config overrides must come from the bundled examples.
decision := "deny" if {
	input.config_path
	not startswith(input.config_path, "config_examples/")
}
`
