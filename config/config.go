// Package config reads the configuration of the storefront binary from
// environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	RazorpayKeyID         string `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret     string `env:"RAZORPAY_KEY_SECRET"`
	RazorpayWebhookSecret string `env:"RAZORPAY_WEBHOOK_SECRET"`

	StripeAPIKey        string `env:"STRIPE_API_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	ResendAPIKey        string `env:"RESEND_API_KEY"`
	ContactEmailEnabled bool   `env:"CONTACT_EMAIL_ENABLED" envDefault:"true"`
	ContactAdminEmail   string `env:"CONTACT_ADMIN_EMAIL" envDefault:"contact@rajuvisuals.com"`
	ContactFromAddress  string `env:"CONTACT_FROM_ADDRESS" envDefault:"Raju Visuals <reply@rajuvisuals.com>"`

	AssetCacheTTL time.Duration `env:"ASSET_CACHE_TTL" envDefault:"5m"`
	ThemeColor    string        `env:"THEME_COLOR" envDefault:"#9B5CFF"`
}

func Parse() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}
