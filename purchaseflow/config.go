package purchaseflow

import (
	"time"
)

const (
	defaultRequestTimeout  = 10 * time.Second
	defaultPollInterval    = 2 * time.Second
	defaultPollMaxDuration = 45 * time.Second
)

// Config tunes a storefront client. The zero value plus a BaseURL is enough.
type Config struct {
	// BaseURL is where the storefront backend lives, e.g. https://shop.example.com
	BaseURL string

	// ClientKey identifies the payment-platform account in the checkout widget
	ClientKey string

	// RequestTimeout bounds every single backend call
	RequestTimeout time.Duration

	// PollInterval and PollMaxDuration bound the receipt-confirmation poll
	// after an out-of-band checkout
	PollInterval    time.Duration
	PollMaxDuration time.Duration
}

func (cfg Config) withDefaults() Config {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollMaxDuration == 0 {
		cfg.PollMaxDuration = defaultPollMaxDuration
	}

	return cfg
}
