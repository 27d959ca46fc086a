package runner

import (
	"log/slog"
)

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler sets the IO strategy.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithSignals enables OS signal handling: an interrupt discards a pending
// multi-line block instead of ending the session.
func WithSignals(enabled bool) Option {
	return func(r *Runner) {
		r.Signals = enabled
	}
}

// WithBanner prints text once before the first prompt.
func WithBanner(text string) Option {
	return func(r *Runner) {
		r.Banner = text
	}
}
