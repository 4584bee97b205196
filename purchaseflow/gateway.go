package purchaseflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrCheckoutCancelled is returned when the buyer dismisses the checkout
// widget without paying.
var ErrCheckoutCancelled = errors.New("checkout cancelled")

// PaymentSettlement is what the checkout widget hands back after a
// successful payment.
type PaymentSettlement struct {
	OrderID   string
	PaymentID string
	Signature string
}

// CheckoutOptions configures one opening of the checkout widget.
type CheckoutOptions struct {
	Key           string
	OrderID       string
	AmountInPaise int64
	Currency      string
	Name          string
	Description   string
	PrefillEmail  string
}

// ScriptLoader makes the checkout widget available. Loading is expensive,
// so the gateway invokes it once per process.
//
//go:generate mockgen -source=gateway.go -package purchaseflow -destination gateway_mock.go ScriptLoader,Overlay
type ScriptLoader interface {
	EnsureLoaded(c context.Context) error
}

// Overlay is the interactive checkout widget itself. Implementations invoke
// onSettled when the buyer paid and onDismissed when they gave up. A sloppy
// implementation may invoke both: the gateway takes the first outcome only.
type Overlay interface {
	Open(c context.Context, opts CheckoutOptions, onSettled func(PaymentSettlement), onDismissed func()) error
}

type Gateway struct {
	loader  ScriptLoader
	overlay Overlay

	loadMutex sync.Mutex
	loaded    bool
}

func NewGateway(loader ScriptLoader, overlay Overlay) *Gateway {
	return &Gateway{
		loader:  loader,
		overlay: overlay,
	}
}

// ensureLoaded loads the widget script once. A failed load is retried on
// the next payment attempt.
func (g *Gateway) ensureLoaded(c context.Context) error {
	g.loadMutex.Lock()
	defer g.loadMutex.Unlock()

	if g.loaded {
		return nil
	}

	err := g.loader.EnsureLoaded(c)
	if err != nil {
		return err
	}
	g.loaded = true

	return nil
}

type paymentOutcome struct {
	settlement PaymentSettlement
	cancelled  bool
}

// InitiatePayment opens the checkout widget and blocks until the buyer paid,
// dismissed it, or the context expired. Only the first outcome counts.
func (g *Gateway) InitiatePayment(c context.Context, opts CheckoutOptions) (PaymentSettlement, error) {
	err := g.ensureLoaded(c)
	if err != nil {
		return PaymentSettlement{}, fmt.Errorf("error loading checkout widget: %s", err)
	}

	var once sync.Once
	outcomes := make(chan paymentOutcome, 1)

	err = g.overlay.Open(c, opts,
		func(settlement PaymentSettlement) {
			once.Do(func() {
				outcomes <- paymentOutcome{settlement: settlement}
			})
		},
		func() {
			once.Do(func() {
				outcomes <- paymentOutcome{cancelled: true}
			})
		})
	if err != nil {
		return PaymentSettlement{}, fmt.Errorf("error opening checkout widget: %s", err)
	}

	select {
	case outcome := <-outcomes:
		if outcome.cancelled {
			return PaymentSettlement{}, ErrCheckoutCancelled
		}
		return outcome.settlement, nil
	case <-c.Done():
		return PaymentSettlement{}, c.Err()
	}
}
