package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the shell's Prometheus collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	commands        *prometheus.CounterVec
	commandErrors   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	messages        *prometheus.CounterVec
	scripts         *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdshell_commands_total",
				Help: "Total number of dispatched commands",
			},
			[]string{"kind", "nested"},
		),
		commandErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdshell_command_errors_total",
				Help: "Total number of error lines produced by commands",
			},
			[]string{"kind"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pdshell_command_duration_seconds",
				Help:    "Duration of top-level command dispatch",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"kind"},
		),
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdshell_messages_total",
				Help: "Total number of messages sent to the patch",
			},
			[]string{"selector", "result"},
		),
		scripts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdshell_lua_evaluations_total",
				Help: "Total number of Lua evaluations",
			},
			[]string{"source", "result"},
		),
	}
	m.registry.MustRegister(m.commands, m.commandErrors, m.commandDuration, m.messages, m.scripts)
	return m
}

// Registry exposes the underlying registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(_ context.Context, e *domain.CommandEvent) {
			kind := string(e.Kind)
			m.commands.WithLabelValues(kind, strconv.FormatBool(e.Depth > 1)).Inc()
			if e.Errors > 0 {
				m.commandErrors.WithLabelValues(kind).Add(float64(e.Errors))
			}
			if e.Depth <= 1 {
				m.commandDuration.WithLabelValues(kind).Observe(e.Duration.Seconds())
			}
		},
		OnMessage: func(_ context.Context, e *domain.MessageEvent) {
			m.messages.WithLabelValues(e.Message.Selector, result(e.IsError)).Inc()
		},
		OnScript: func(_ context.Context, e *domain.ScriptEvent) {
			source := "script"
			if e.Source == "expression" {
				source = "expression"
			}
			m.scripts.WithLabelValues(source, result(e.IsError)).Inc()
		},
	}
}

func result(isError bool) string {
	if isError {
		return "error"
	}
	return "ok"
}
