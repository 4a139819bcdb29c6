package billing

import "errors"

var (
	ErrMissingEmail = errors.New("payer email is required")
	ErrNoSession    = errors.New("no active session")
)
