// Package policy decides, with OPA Rego, whether an unverified login gets a fresh code.
package policy

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const reissueQuery = "data.otpauth.reissue.allow"

// Built-in policy names accepted by NewReissuePolicy.
const (
	ModeAlways      = "always"
	ModeWhenExpired = "when_expired"
)

// Every unverified login gets a new code, replacing any pending one.
const alwaysPolicy = `package otpauth.reissue

default allow := true
`

// A pending, unexpired code is left in place on login.
const whenExpiredPolicy = `package otpauth.reissue

default allow := false

allow if {
	not input.challenge.exists
}

allow if {
	input.challenge.expired
}
`

// ReissueInput is the policy input for one decision.
type ReissueInput struct {
	Trigger          string
	HasChallenge     bool
	Expired          bool
	RemainingSeconds int64
}

func (in ReissueInput) toMap() map[string]interface{} {
	return map[string]interface{}{
		"trigger": in.Trigger,
		"challenge": map[string]interface{}{
			"exists":            in.HasChallenge,
			"expired":           in.Expired,
			"remaining_seconds": in.RemainingSeconds,
		},
	}
}

// ReissuePolicy evaluates the re-issue rule.
type ReissuePolicy struct {
	name  string
	query rego.PreparedEvalQuery
}

// NewReissuePolicy compiles the policy named by mode: "always" (also used for empty mode), "when_expired",
// or a path to a .rego file defining data.otpauth.reissue.allow.
func NewReissuePolicy(ctx context.Context, mode string) (*ReissuePolicy, error) {
	mode = strings.TrimSpace(mode)
	var src string
	switch mode {
	case "", ModeAlways:
		mode, src = ModeAlways, alwaysPolicy
	case ModeWhenExpired:
		src = whenExpiredPolicy
	default:
		b, err := os.ReadFile(mode)
		if err != nil {
			return nil, fmt.Errorf("policy: read %s: %w", mode, err)
		}
		src = string(b)
	}
	compiler, err := ast.CompileModules(map[string]string{"reissue.rego": src})
	if err != nil {
		return nil, fmt.Errorf("policy: compile %s: %w", mode, err)
	}
	pq, err := rego.New(rego.Query(reissueQuery), rego.Compiler(compiler)).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy: prepare %s: %w", mode, err)
	}
	return &ReissuePolicy{name: mode, query: pq}, nil
}

// Name returns the built-in mode or the policy file path.
func (p *ReissuePolicy) Name() string { return p.name }

// ShouldReissue evaluates the policy for in. An undefined result counts as "do not re-issue".
func (p *ReissuePolicy) ShouldReissue(ctx context.Context, in ReissueInput) (bool, error) {
	rs, err := p.query.Eval(ctx, rego.EvalInput(in.toMap()))
	if err != nil {
		return false, fmt.Errorf("policy: eval: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allow, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy: %s must be boolean, got %T", reissueQuery, rs[0].Expressions[0].Value)
	}
	return allow, nil
}

// HealthCheck evaluates the policy against an empty challenge.
func (p *ReissuePolicy) HealthCheck(ctx context.Context) error {
	_, err := p.ShouldReissue(ctx, ReissueInput{Trigger: "login"})
	return err
}
