// Package template resolves the restricted placeholder language used by
// blueprints: {{expr}} substitution plus a two-operator condition grammar for
// visibility rules. It is intentionally not a general expression language;
// the supported forms are parsed exactly once by a small recursive-descent
// scanner rather than by splitting on operator substrings.
package template

import (
	"strings"
	"time"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// Context holds everything an expression may reference. Resolution is a pure
// function of (text, context); the engine keeps no state between calls.
type Context struct {
	User           map[string]interface{}
	PageVariables  map[string]interface{}
	RouteParams    map[string]string
	SelectedRecord models.Record

	// Now supplies the clock for $now; nil falls back to time.Now.
	Now func() time.Time
}

func (c *Context) now() time.Time {
	if c != nil && c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Engine evaluates template expressions and visibility conditions
type Engine struct{}

// NewEngine creates a new template engine
func NewEngine() *Engine {
	return &Engine{}
}

// Resolve evaluates a single expression (without surrounding braces) against
// the context. Supported forms, in priority order: $user.<path>, $page.<path>,
// $route.<path>, the literal $now (RFC 3339 UTC timestamp at evaluation time),
// and otherwise a dotted path against the selected record. A missing
// intermediate key yields nil, never an error.
func (e *Engine) Resolve(expr string, ctx *Context) interface{} {
	expr = strings.TrimSpace(expr)
	if expr == "" || ctx == nil {
		return nil
	}

	switch {
	case strings.HasPrefix(expr, "$user."):
		return resolvePath(ctx.User, strings.TrimPrefix(expr, "$user."))
	case strings.HasPrefix(expr, "$page."):
		return resolvePath(ctx.PageVariables, strings.TrimPrefix(expr, "$page."))
	case strings.HasPrefix(expr, "$route."):
		return resolvePath(stringMapAsAny(ctx.RouteParams), strings.TrimPrefix(expr, "$route."))
	case expr == "$now":
		return ctx.now().UTC().Format(time.RFC3339)
	default:
		return resolvePath(map[string]interface{}(ctx.SelectedRecord), expr)
	}
}

// ResolveTemplate replaces every {{expr}} occurrence in text. Resolved nil
// values render as the empty string. Text without placeholders passes through
// unchanged, unterminated placeholders are left as literal text.
func (e *Engine) ResolveTemplate(text string, ctx *Context) string {
	spans := scanPlaceholders(text)
	if len(spans) == 0 {
		return text
	}

	var sb strings.Builder
	last := 0
	for _, sp := range spans {
		sb.WriteString(text[last:sp.start])
		sb.WriteString(utils.ToString(e.Resolve(sp.expr, ctx)))
		last = sp.end
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// ResolveValue resolves a configuration value that may be templated. A string
// consisting of exactly one placeholder keeps the resolved value's type (so
// "{{$page.statuses}}" can yield an array for an `in` filter and a missing
// path yields nil); strings with embedded placeholders substitute textually;
// non-string values pass through untouched.
func (e *Engine) ResolveValue(value interface{}, ctx *Context) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}

	spans := scanPlaceholders(s)
	if len(spans) == 0 {
		return s
	}
	if len(spans) == 1 {
		if strings.TrimSpace(s) == s[spans[0].start:spans[0].end] {
			return e.Resolve(spans[0].expr, ctx)
		}
	}
	return e.ResolveTemplate(s, ctx)
}

// EvaluateCondition evaluates a visibility rule. This is the single public
// call site that maps evaluation errors onto the documented fail-open default:
// a malformed rule or a resolver failure keeps the block visible.
func (e *Engine) EvaluateCondition(expr string, ctx *Context) bool {
	result, err := e.evaluateCondition(expr, ctx)
	if err != nil {
		return true
	}
	return result
}

// evaluateCondition parses and evaluates `<operand> === <operand>` or
// `<operand> !== <operand>`. Both operands are template-substituted, trimmed
// and compared as strings. Anything outside that shape is an error for the
// caller to map.
func (e *Engine) evaluateCondition(expr string, ctx *Context) (bool, error) {
	cond, err := parseCondition(expr)
	if err != nil {
		return false, err
	}

	lhs := normalizeOperand(e.ResolveTemplate(cond.lhs, ctx))
	rhs := normalizeOperand(e.ResolveTemplate(cond.rhs, ctx))

	if cond.op == opNotEqual {
		return lhs != rhs, nil
	}
	return lhs == rhs, nil
}

// normalizeOperand trims whitespace and one matching pair of surrounding
// quotes, so `{{status}} === 'done'` compares the way authors expect.
func normalizeOperand(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func stringMapAsAny(m map[string]string) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
