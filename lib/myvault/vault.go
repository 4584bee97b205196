package myvault

import (
	"context"
	"fmt"
	"time"

	"github.com/rajuvisuals/storefront/lib/mystore"
)

const (
	CurrentCredentials = "currentCredentials"
)

// Credentials of a payment-provider: the api key-pair used server-side and
// the secret used to authenticate incoming webhooks.
type Credentials struct {
	ProviderName  string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	CreatedAt     time.Time
}

type VaultReader interface {
	Get(c context.Context, uid string) (Credentials, bool, error)
}

//go:generate mockgen -source=vault.go -package myvault -destination vault_mock.go VaultReadWriter
type VaultReadWriter interface {
	Get(c context.Context, uid string) (Credentials, bool, error)
	Put(c context.Context, uid string, value Credentials) error
}

func New(c context.Context) (VaultReadWriter, func(), error) {
	store, cleanup, err := mystore.New[Credentials](c)
	if err != nil {
		return nil, nil, err
	}

	return store, cleanup, nil
}

func UIDFor(providerName string) string {
	return fmt.Sprintf("%s_%s", CurrentCredentials, providerName)
}
