package config

import "errors"

var (
	ErrNilPointer    = errors.New("config: nil pointer passed to Load")
	ErrParsingConfig = errors.New("config: failed to parse environment")

	ErrBaseURLInvalid  = errors.New("config: base URL is not a valid absolute URL")
	ErrBaseURLInsecure = errors.New("config: base URL must use https")
	ErrBaseURLLoopback = errors.New("config: base URL must be publicly reachable, not loopback")
)
