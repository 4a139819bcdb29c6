package account

import "errors"

var (
	ErrNoSession            = errors.New("no active session")
	ErrNoActiveSubscription = errors.New("no encontramos una suscripción activa")
	ErrInvalidToken         = errors.New("login token is invalid or expired")
)
