package expr

import (
	"github.com/aretw0/pdshell/pkg/domain"
	lua "github.com/yuin/gopher-lua"
)

// ResultKind tags the value held by a Result.
type ResultKind int

const (
	KindText ResultKind = iota
	KindNumber
)

// Result is the value of an evaluated expression: either a number or text.
type Result struct {
	Kind   ResultKind
	Number float64
	Text   string
}

// Number creates a numeric result.
func Number(v float64) Result {
	return Result{Kind: KindNumber, Number: v}
}

// Text creates a textual result.
func Text(s string) Result {
	return Result{Kind: KindText, Text: s}
}

// IsNumber reports whether the result is numeric.
func (r Result) IsNumber() bool {
	return r.Kind == KindNumber
}

// String returns the textual form substituted into command text.
func (r Result) String() string {
	if r.Kind == KindNumber {
		return domain.FormatFloat(r.Number)
	}
	return r.Text
}

// resultFromValue selects numeric, then textual; anything else is empty text.
func resultFromValue(lv lua.LValue) Result {
	switch v := lv.(type) {
	case lua.LNumber:
		return Number(float64(v))
	case lua.LString:
		return Text(string(v))
	default:
		return Text("")
	}
}
