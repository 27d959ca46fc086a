// Package middleware provides decorators for ports.HistoryStore.
package middleware
