package template

import (
	"fmt"
	"strings"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

const (
	opEqual    = "==="
	opNotEqual = "!=="
)

// span marks one {{expr}} occurrence: [start,end) covers the braces, expr is
// the trimmed inner text.
type span struct {
	start int
	end   int
	expr  string
}

// scanPlaceholders walks the text once and collects every well-formed
// {{...}} span. An opening marker without a closing one is not a span; the
// tail stays literal.
func scanPlaceholders(text string) []span {
	var spans []span
	i := 0
	for i < len(text) {
		open := strings.Index(text[i:], "{{")
		if open < 0 {
			break
		}
		open += i
		close := strings.Index(text[open+2:], "}}")
		if close < 0 {
			break
		}
		close += open + 2
		spans = append(spans, span{
			start: open,
			end:   close + 2,
			expr:  strings.TrimSpace(text[open+2 : close]),
		})
		i = close + 2
	}
	return spans
}

// condition is a parsed visibility rule: exactly one comparison operator with
// raw, not-yet-resolved operands on either side.
type condition struct {
	lhs string
	op  string
	rhs string
}

// parseCondition scans the rule left to right, skipping quoted sections, and
// accepts exactly one === or !== occurrence. Zero or multiple operators make
// the rule malformed.
func parseCondition(expr string) (*condition, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("empty condition")
	}

	var quote byte
	opIdx := -1
	op := ""
	for i := 0; i < len(expr); i++ {
		ch := expr[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
			continue
		}
		if i+3 > len(expr) {
			continue
		}
		var found string
		switch expr[i : i+3] {
		case opNotEqual:
			found = opNotEqual
		case opEqual:
			found = opEqual
		default:
			continue
		}
		if op != "" {
			return nil, fmt.Errorf("condition %q has more than one comparison operator", expr)
		}
		op = found
		opIdx = i
		i += 2
	}
	if op == "" {
		return nil, fmt.Errorf("condition %q has no comparison operator", expr)
	}

	return &condition{
		lhs: expr[:opIdx],
		op:  op,
		rhs: expr[opIdx+3:],
	}, nil
}

// resolvePath walks a dotted path through nested maps. Any missing key,
// empty segment or non-map intermediate yields nil.
func resolvePath(root map[string]interface{}, path string) interface{} {
	if root == nil {
		return nil
	}

	var current interface{} = root
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return nil
		}
		node := asMap(current)
		if node == nil {
			return nil
		}
		value, ok := node[seg]
		if !ok {
			return nil
		}
		current = value
	}
	return current
}

// asMap views the supported map shapes uniformly. Records decoded from JSON
// arrive as map[string]interface{}, records produced by repositories as
// models.Record; both walk the same way.
func asMap(v interface{}) map[string]interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		return node
	case models.Record:
		return node
	case map[string]string:
		out := make(map[string]interface{}, len(node))
		for k, val := range node {
			out[k] = val
		}
		return out
	default:
		return nil
	}
}
