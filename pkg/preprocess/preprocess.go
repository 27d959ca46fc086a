// Package preprocess substitutes embedded {expression} spans in command text.
package preprocess

import (
	"context"
	"strings"

	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/expr"
)

// Evaluator evaluates one embedded expression.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, expectsValue bool) (expr.Result, error)
}

// Reporter receives the error lines produced while substituting.
type Reporter func(domain.Line)

// Preprocessor replaces every {...} span of a command with its evaluated text.
type Preprocessor struct {
	eval   Evaluator
	report Reporter
}

// New creates a preprocessor. A nil reporter discards errors.
func New(eval Evaluator, report Reporter) *Preprocessor {
	if report == nil {
		report = func(domain.Line) {}
	}
	return &Preprocessor{eval: eval, report: report}
}

// Substitute never fails. Script errors substitute empty text; an unmatched '{'
// is reported and the rest of the input is kept verbatim.
//
// Spans do not nest: the first '}' after a '{' closes it. A message that starts
// with '{' is a script block and its spans are evaluated for side effects only.
func (p *Preprocessor) Substitute(ctx context.Context, text string) string {
	expectsValue := !strings.HasPrefix(text, "{")

	var b strings.Builder
	pos := 0
	for pos < len(text) {
		start := strings.IndexByte(text[pos:], '{')
		if start < 0 {
			b.WriteString(text[pos:])
			break
		}
		start += pos
		b.WriteString(text[pos:start])

		end := strings.IndexByte(text[start:], '}')
		if end < 0 {
			p.report(domain.LineFromError(&domain.SyntaxError{Offset: start}))
			b.WriteString(text[start:])
			break
		}
		end += start

		b.WriteString(p.evaluate(ctx, text[start+1:end], expectsValue))
		pos = end + 1
	}
	return b.String()
}

func (p *Preprocessor) evaluate(ctx context.Context, expression string, expectsValue bool) string {
	if p.eval == nil {
		return ""
	}
	res, err := p.eval.Evaluate(ctx, expression, expectsValue)
	if err != nil {
		p.report(domain.LineFromError(err))
		return ""
	}
	return res.String()
}

// CountBraces returns the number of '{' minus the number of '}' in text.
// A positive count means the input is still inside an expression and more lines
// are expected.
func CountBraces(text string) int {
	n := 0
	for _, r := range text {
		switch r {
		case '{':
			n++
		case '}':
			n--
		}
	}
	return n
}
