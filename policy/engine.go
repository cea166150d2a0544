// Package policy decides who may manage marketplace posts.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by the engine.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.post_policy.decision"),
		rego.Module("post_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// ManagePostInput describes a post-management attempt.
type ManagePostInput struct {
	ActorID      string `json:"actor_id"`
	ActorIsAdmin bool   `json:"actor_is_admin"`
	OwnerID      string `json:"owner_id"`
}

// Evaluate returns the policy decision for input. Policies that yield no
// result deny by default.
func (e *Engine) Evaluate(ctx context.Context, input ManagePostInput) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionDeny, nil
	}
	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return DecisionDeny, nil
}

// CanManagePost reports whether the actor may edit or moderate the post.
func (e *Engine) CanManagePost(ctx context.Context, input ManagePostInput) (bool, error) {
	decision, err := e.Evaluate(ctx, input)
	if err != nil {
		return false, err
	}
	return decision == DecisionAllow, nil
}

// DefaultPolicy grants post management to admins and to the post's owner.
const DefaultPolicy = `
package post_policy

import rego.v1

default decision := "deny"

decision := "allow" if input.actor_is_admin

decision := "allow" if {
	input.actor_id != ""
	input.actor_id == input.owner_id
}
`
