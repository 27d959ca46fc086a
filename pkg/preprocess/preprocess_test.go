package preprocess_test

import (
	"context"
	"testing"

	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/expr"
	"github.com/aretw0/pdshell/pkg/preprocess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPreprocessor(t *testing.T) (*preprocess.Preprocessor, *[]domain.Line) {
	t.Helper()
	engine := expr.New()
	t.Cleanup(engine.Close)

	var lines []domain.Line
	p := preprocess.New(engine, func(l domain.Line) { lines = append(lines, l) })
	return p, &lines
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		errors int
	}{
		{"No Expressions", "metro 200", "metro 200", 0},
		{"Single Span", "color {1+1}", "color 2", 0},
		{"Several Spans", "{2*2} and {10/4}", "4 and 2.5", 0},
		{"String Result", `symbol {"a" .. "b"}`, "symbol ab", 0},
		{"Nil Result", "x {nil} y", "x  y", 0},
		{"Empty Input", "", "", 0},
		{"Unmatched Tail", "a {1+1} b {c", "a 2 b {c", 1},
		{"Stray Close Brace", "a } b", "a } b", 0},
		{"Script Error Substitutes Empty", "a {1 +} b", "a  b", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, lines := newPreprocessor(t)

			got := p.Substitute(context.Background(), tt.input)

			assert.Equal(t, tt.want, got)
			assert.Len(t, *lines, tt.errors)
			for _, l := range *lines {
				assert.Equal(t, domain.SeverityError, l.Severity)
			}
		})
	}
}

func TestSubstitute_UnmatchedMessage(t *testing.T) {
	p, lines := newPreprocessor(t)

	p.Substitute(context.Background(), "a {c")

	require.Len(t, *lines, 1)
	assert.Equal(t, "Unmatched '{' in expression", (*lines)[0].Text)
}

func TestSubstitute_ScriptErrorMessage(t *testing.T) {
	p, lines := newPreprocessor(t)

	p.Substitute(context.Background(), "x {error('bad')}")

	require.Len(t, *lines, 1)
	assert.Contains(t, (*lines)[0].Text, "Lua error:")
	assert.Contains(t, (*lines)[0].Text, "bad")
}

func TestSubstitute_LeadingBlockRunsForSideEffects(t *testing.T) {
	engine := expr.New()
	defer engine.Close()
	p := preprocess.New(engine, nil)
	ctx := context.Background()

	got := p.Substitute(ctx, "{ count = 3 }")
	assert.Equal(t, "", got, "a leading block yields no value")

	assert.Equal(t, "count is 3", p.Substitute(ctx, "count is {count}"))
}

func TestSubstitute_SpanSharesGlobals(t *testing.T) {
	p, _ := newPreprocessor(t)
	ctx := context.Background()

	p.Substitute(ctx, "{ function f(x) return x + 1 end }")
	assert.Equal(t, "set 5", p.Substitute(ctx, "set {f(4)}"))
}

func TestCountBraces(t *testing.T) {
	assert.Equal(t, 0, preprocess.CountBraces("color {1+1}"))
	assert.Equal(t, 1, preprocess.CountBraces("{\nfor i = 1, 3 do"))
	assert.Equal(t, 2, preprocess.CountBraces("{ t = {"))
	assert.Equal(t, -1, preprocess.CountBraces("}"))
	assert.Equal(t, 0, preprocess.CountBraces(""))
}
