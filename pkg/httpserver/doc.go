// Package httpserver wraps net/http.Server with graceful shutdown on
// context cancellation or SIGINT/SIGTERM, and a readiness endpoint helper.
package httpserver
