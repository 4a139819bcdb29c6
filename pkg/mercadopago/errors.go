package mercadopago

import "errors"

var (
	ErrMissingAccessToken = errors.New("mercadopago: access token is required")

	ErrMissingSignature   = errors.New("mercadopago: signature header is missing")
	ErrMalformedSignature = errors.New("mercadopago: signature header is malformed")
	ErrSignatureMismatch  = errors.New("mercadopago: signature mismatch")
)
