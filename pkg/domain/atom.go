package domain

import (
	"errors"
	"strconv"
	"strings"
)

// AtomType distinguishes numeric from symbolic atoms.
type AtomType string

const (
	AtomFloat  AtomType = "float"
	AtomSymbol AtomType = "symbol"
)

// numericChars is the character class that makes a token numeric.
// Note that the class admits strings like "1-2" or "e"; see ParseAtom.
const numericChars = "0123456789-e."

// Atom is a single message argument.
type Atom struct {
	Type   AtomType `json:"type"`
	Float  float64  `json:"float,omitempty"`
	Symbol string   `json:"symbol,omitempty"`
}

// Float creates a numeric atom.
func Float(v float64) Atom {
	return Atom{Type: AtomFloat, Float: v}
}

// Symbol creates a symbolic atom.
func Symbol(s string) Atom {
	return Atom{Type: AtomSymbol, Symbol: s}
}

// IsNumeric reports whether a raw token is classified as a number.
// A token is numeric when it is non-empty and made only of digits, '-', 'e' and '.'.
func IsNumeric(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if !strings.ContainsRune(numericChars, r) {
			return false
		}
	}
	return true
}

// ParseAtom coerces a raw token into an atom.
//
// Numeric tokens are parsed from their longest prefix that forms a valid float, so
// "1-2" yields 1 and a lone "-" yields 0. This mirrors how the patch engine reads
// number boxes and is a known classification quirk, not an error.
func ParseAtom(token string) Atom {
	if IsNumeric(token) {
		return Float(ParseFloatPrefix(token))
	}
	return Symbol(token)
}

// ParseAtoms coerces every token into an atom.
func ParseAtoms(tokens []string) []Atom {
	atoms := make([]Atom, 0, len(tokens))
	for _, tok := range tokens {
		atoms = append(atoms, ParseAtom(tok))
	}
	return atoms
}

// ParseFloatPrefix returns the value of the longest prefix of s that parses as a float.
// It returns 0 when no prefix is a valid number. Out of range values saturate to
// ±Inf or 0 instead of falling back to a shorter prefix.
func ParseFloatPrefix(s string) float64 {
	for end := len(s); end > 0; end-- {
		v, err := strconv.ParseFloat(s[:end], 64)
		if err == nil || errors.Is(err, strconv.ErrRange) {
			return v
		}
	}
	return 0
}

// FormatFloat renders a number the way it is substituted back into command text:
// integers without a fractional part and never in exponent notation, so the result
// is always classified numeric again.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// String renders the atom as it would appear in a message box.
func (a Atom) String() string {
	if a.Type == AtomFloat {
		return FormatFloat(a.Float)
	}
	return a.Symbol
}
