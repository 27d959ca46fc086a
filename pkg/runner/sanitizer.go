package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is 4KB, enough for a pasted multi-line Lua block.
	// The CLI sets it from the max_input_size config key.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "PDSHELL_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// MaxInputSize returns the byte limit of one command. For a multi-line Lua block
// the limit covers the whole block, not each of its lines.
func MaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}

// CheckSize rejects text longer than MaxInputSize. Oversized input is never truncated.
func CheckSize(text string) error {
	if limit := MaxInputSize(); len(text) > limit {
		return fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(text), limit)
	}
	return nil
}

// SanitizeInput checks the size of input, rejects invalid UTF-8 and strips
// control characters other than newline, tab and carriage return.
func SanitizeInput(input string) (string, error) {
	if err := CheckSize(input); err != nil {
		return "", err
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(input, isUnsafeControl) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if isUnsafeControl(r) {
			return -1
		}
		return r
	}, input), nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
