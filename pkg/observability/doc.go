/*
Package observability turns shell lifecycle events into logs and Prometheus metrics.

Metrics.Hooks returns domain.LifecycleHooks that can be passed to pdshell.WithLifecycleHooks;
Combine chains several hook sets so logging and metrics can be used together.
*/
package observability
