// Package redis connects to a Redis server with retry. The portal uses
// Redis only as an optional backend for the admin login rate limiter; the
// connection URL is therefore not required configuration.
package redis
