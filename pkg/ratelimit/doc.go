// Package ratelimit implements a sliding-window rate limiter over a
// pluggable store. The store is injected rather than held in package
// globals so its lifecycle is owned by the process entrypoint and tests
// can run isolated instances.
//
// Two stores are provided: an in-memory one for single-instance
// deployments and a Redis-backed one for multi-instance setups.
package ratelimit
