package main

import "time"

// appConfig is the portal-level configuration; infrastructure packages
// load their own sections.
type appConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// PublicBaseURL must be a publicly reachable HTTPS origin. The
	// payment processor calls the webhook on it, so loopback or plain
	// HTTP is a deployment error.
	PublicBaseURL string `env:"PUBLIC_BASE_URL,required"`

	// PlanCatalogFile overrides the embedded plan catalog when set.
	PlanCatalogFile string `env:"PLAN_CATALOG_FILE"`

	LoginTokenTTL   time.Duration `env:"LOGIN_TOKEN_TTL" envDefault:"15m"`
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"5"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`

	// Admin credentials; the admin API is not mounted when absent.
	AdminEmail        string        `env:"ADMIN_EMAIL"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	AdminRateLimit    int           `env:"ADMIN_RATE_LIMIT" envDefault:"30"`
	AdminRateWindow   time.Duration `env:"ADMIN_RATE_WINDOW" envDefault:"1m"`
}

func (c appConfig) isProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
