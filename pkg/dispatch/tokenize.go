package dispatch

import "strings"

// Tokenize splits text on whitespace. A substring enclosed in double or single quotes
// forms one token with the quotes removed. An unterminated quote runs to the end.
func Tokenize(text string) []string {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
		inToken bool
	)

	flush := func() {
		if inToken {
			tokens = append(tokens, current.String())
			current.Reset()
			inToken = false
		}
	}

	for _, r := range text {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	flush()
	return tokens
}
