package mercadopago

import "time"

// Config holds processor credentials. WebhookSecret left empty disables
// signature verification, a deliberate lower-security fallback for
// environments where the secret has not been provisioned.
type Config struct {
	AccessToken   string        `env:"MP_ACCESS_TOKEN,required"`
	WebhookSecret string        `env:"MP_WEBHOOK_SECRET"`
	BaseURL       string        `env:"MP_BASE_URL" envDefault:"https://api.mercadopago.com"`
	HTTPTimeout   time.Duration `env:"MP_HTTP_TIMEOUT" envDefault:"15s"`
}
