package httpserver

import "errors"

var (
	ErrStart    = errors.New("httpserver: failed to start server")
	ErrShutdown = errors.New("httpserver: failed to shut down server")
)
