package policy

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/cel-go/cel"
)

// Input is the request data an admission expression can see
type Input struct {
	URL      string
	Platform string
	Format   string
}

// Policy evaluates an optional CEL admission expression, e.g.
//
//	platform != "instagram" || format == "mp4"
//
// A Policy with no expression allows everything.
type Policy struct {
	expr    string
	program cel.Program
}

// New compiles expr. An empty expression yields an allow-all policy.
func New(expr string) (*Policy, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &Policy{}, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("url", cel.StringType),
		cel.Variable("host", cel.StringType),
		cel.Variable("platform", cel.StringType),
		cel.Variable("format", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}

	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("policy must evaluate to bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &Policy{expr: expr, program: prg}, nil
}

// Enabled reports whether an expression is configured
func (p *Policy) Enabled() bool {
	return p.program != nil
}

// Expression returns the configured expression
func (p *Policy) Expression() string {
	return p.expr
}

// Allow evaluates the expression against in
func (p *Policy) Allow(in Input) (bool, error) {
	if p.program == nil {
		return true, nil
	}

	out, _, err := p.program.Eval(map[string]interface{}{
		"url":      in.URL,
		"host":     hostOf(in.URL),
		"platform": in.Platform,
		"format":   in.Format,
	})
	if err != nil {
		return false, fmt.Errorf("CEL evaluation error: %w", err)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return boolean, got %T", out.Value())
	}

	return allowed, nil
}

// hostOf extracts the lower-cased host, tolerating scheme-less URLs
func hostOf(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
}
