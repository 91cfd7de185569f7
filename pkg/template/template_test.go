package template

import (
	"testing"
	"time"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/stretchr/testify/assert"
)

func testContext() *Context {
	return &Context{
		User: map[string]interface{}{
			"id":   "u-1",
			"name": "Dana",
			"role": "admin",
			"team": map[string]interface{}{"name": "platform"},
		},
		PageVariables: map[string]interface{}{
			"filterStatus": "open",
			"statuses":     []interface{}{"open", "done"},
			"limit":        float64(25),
		},
		RouteParams: map[string]string{"id": "task-42"},
		SelectedRecord: models.Record{
			"id":     "task-42",
			"status": "done",
			"title":  "Ship release",
			"owner":  map[string]interface{}{"email": "dana@example.com"},
		},
		Now: func() time.Time {
			return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
		},
	}
}

func TestResolveExpressionForms(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()

	tests := []struct {
		name string
		expr string
		want interface{}
	}{
		{"user path", "$user.name", "Dana"},
		{"user nested path", "$user.team.name", "platform"},
		{"page variable", "$page.filterStatus", "open"},
		{"route param", "$route.id", "task-42"},
		{"now literal", "$now", "2025-03-14T09:30:00Z"},
		{"record field", "status", "done"},
		{"record nested field", "owner.email", "dana@example.com"},
		{"missing record field", "assignee", nil},
		{"missing nested intermediate", "owner.address.city", nil},
		{"missing user path", "$user.department", nil},
		{"missing route param", "$route.tab", nil},
		{"empty expression", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Resolve(tt.expr, ctx)
			assert.Equal(t, tt.want, got)
			t.Logf("✅ %s resolved to %v", tt.expr, got)
		})
	}
}

func TestResolveTemplateSubstitution(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"single placeholder", "{{title}}", "Ship release"},
		{"embedded placeholder", "Task: {{title}}", "Task: Ship release"},
		{"multiple placeholders", "{{$user.name}} / {{status}}", "Dana / done"},
		{"missing path renders empty", "owner: {{assignee.name}}", "owner: "},
		{"no placeholders passes through", "plain text", "plain text"},
		{"unterminated placeholder stays literal", "broken {{title", "broken {{title"},
		{"numeric value", "limit={{$page.limit}}", "limit=25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.ResolveTemplate(tt.text, ctx)
			assert.Equal(t, tt.want, got)
			t.Logf("✅ %q -> %q", tt.text, got)
		})
	}
}

func TestResolveValueKeepsTypes(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()

	t.Run("whole placeholder keeps resolved type", func(t *testing.T) {
		got := engine.ResolveValue("{{$page.statuses}}", ctx)
		assert.Equal(t, []interface{}{"open", "done"}, got)
		t.Log("✅ array value survives resolution for `in` filters")
	})

	t.Run("whole placeholder missing path yields nil", func(t *testing.T) {
		got := engine.ResolveValue("{{$page.unset}}", ctx)
		assert.Nil(t, got)
	})

	t.Run("embedded placeholder substitutes textually", func(t *testing.T) {
		got := engine.ResolveValue("status is {{status}}", ctx)
		assert.Equal(t, "status is done", got)
	})

	t.Run("non-string passes through", func(t *testing.T) {
		assert.Equal(t, float64(10), engine.ResolveValue(float64(10), ctx))
		assert.Equal(t, true, engine.ResolveValue(true, ctx))
		assert.Nil(t, engine.ResolveValue(nil, ctx))
	})

	t.Run("plain string passes through", func(t *testing.T) {
		assert.Equal(t, "open", engine.ResolveValue("open", ctx))
	})
}

func TestEvaluateConditionComparisons(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"equality true", "{{status}} === done", true},
		{"equality false", "{{status}} === archived", false},
		{"inequality true", "{{status}} !== archived", true},
		{"inequality false", "{{status}} !== done", false},
		{"quoted operand", "{{status}} === 'done'", true},
		{"double quoted operand", `{{status}} === "done"`, true},
		{"user form", "{{$user.role}} === admin", true},
		{"page variable form", "{{$page.filterStatus}} === open", true},
		{"missing path compares as empty", "{{assignee}} === ''", true},
		{"literal only", "done === done", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.EvaluateCondition(tt.expr, ctx)
			assert.Equal(t, tt.want, got)
			t.Logf("✅ %q -> %v", tt.expr, got)
		})
	}
}

func TestEvaluateConditionFailsOpen(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()

	// A rule the parser cannot understand must keep the block visible.
	malformed := []string{
		"",
		"   ",
		"{{status}}",
		"{{status}} ==",
		"{{status}} = done",
		"{{status}} == done",
		"a === b === c",
		"a !== b === c",
	}

	for _, expr := range malformed {
		t.Run("malformed "+expr, func(t *testing.T) {
			assert.True(t, engine.EvaluateCondition(expr, ctx))
		})
	}
	t.Log("✅ malformed visibility rules fail open")
}

func TestEvaluateConditionQuotedOperators(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()

	// Operator characters inside quotes are operand text, not operators.
	assert.False(t, engine.EvaluateCondition("{{status}} === 'a===b'", ctx))
	assert.True(t, engine.EvaluateCondition("'a===b' === 'a===b'", ctx))
	t.Log("✅ quoted sections are skipped during operator scan")
}

func TestParseCondition(t *testing.T) {
	cond, err := parseCondition("{{status}} === done")
	assert.NoError(t, err)
	assert.Equal(t, opEqual, cond.op)
	assert.Equal(t, "{{status}} ", cond.lhs)
	assert.Equal(t, " done", cond.rhs)

	cond, err = parseCondition("{{status}} !== done")
	assert.NoError(t, err)
	assert.Equal(t, opNotEqual, cond.op)

	_, err = parseCondition("no operator here")
	assert.Error(t, err)

	_, err = parseCondition("a === b !== c")
	assert.Error(t, err)
}

func TestScanPlaceholders(t *testing.T) {
	spans := scanPlaceholders("a {{x}} b {{ y.z }} c")
	assert.Len(t, spans, 2)
	assert.Equal(t, "x", spans[0].expr)
	assert.Equal(t, "y.z", spans[1].expr)

	assert.Empty(t, scanPlaceholders("no markers"))
	assert.Empty(t, scanPlaceholders("open only {{x"))
}

func TestResolveNowDefaultsToWallClock(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()
	ctx.Now = nil

	before := time.Now().UTC().Add(-time.Second)
	got, ok := engine.Resolve("$now", ctx).(string)
	assert.True(t, ok)

	parsed, err := time.Parse(time.RFC3339, got)
	assert.NoError(t, err)
	assert.True(t, parsed.After(before))
}
