package domain

import "strings"

// Selectors with a fixed meaning in the patch engine.
const (
	SelectorFloat = "float"
	SelectorBang  = "bang"
)

// Message is what the shell sends to the patch: a selector followed by atoms.
type Message struct {
	Selector string `json:"selector"`
	Args     []Atom `json:"args,omitempty"`
}

// NewMessage builds a message from a selector and raw argument tokens.
func NewMessage(selector string, tokens ...string) Message {
	return Message{Selector: selector, Args: ParseAtoms(tokens)}
}

// FloatMessage builds a bare numeric message.
func FloatMessage(v float64) Message {
	return Message{Selector: SelectorFloat, Args: []Atom{Float(v)}}
}

// MessageFromTokens applies the bare-value rule used for object and canvas messages:
// a single numeric token becomes a float message, a single symbolic token a bare
// selector, and anything longer a selector followed by coerced atoms.
func MessageFromTokens(tokens []string) (Message, bool) {
	switch {
	case len(tokens) == 0:
		return Message{}, false
	case len(tokens) == 1 && IsNumeric(tokens[0]):
		return FloatMessage(ParseFloatPrefix(tokens[0])), true
	case len(tokens) == 1:
		return Message{Selector: tokens[0]}, true
	default:
		return NewMessage(tokens[0], tokens[1:]...), true
	}
}

// String renders the message in message-box notation.
func (m Message) String() string {
	parts := make([]string, 0, len(m.Args)+1)
	parts = append(parts, m.Selector)
	for _, a := range m.Args {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, " ")
}
