package purchaseflow

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sethvargo/go-retry"
)

// ConfirmState is where a post-checkout confirmation is in its lifecycle.
type ConfirmState string

const (
	ConfirmStateLoading ConfirmState = "loading"
	ConfirmStateSuccess ConfirmState = "success"
	ConfirmStateFailed  ConfirmState = "failed"
)

// ConfirmFlow is used when the buyer lands back on the site after an
// out-of-band checkout: the receipt is created by the webhook, which may
// lag, so the flow polls for it within a bounded window.
type ConfirmFlow struct {
	client *Client
	cfg    Config

	mutex        sync.Mutex
	state        ConfirmState
	receipt      Receipt
	errorMessage string
}

func NewConfirmFlow(client *Client) *ConfirmFlow {
	return &ConfirmFlow{
		client: client,
		cfg:    client.cfg,
		state:  ConfirmStateLoading,
	}
}

func (f *ConfirmFlow) State() ConfirmState {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.state
}

func (f *ConfirmFlow) ErrorMessage() string {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.errorMessage
}

func (f *ConfirmFlow) Receipt() Receipt {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.receipt
}

// Confirm polls the backend until the receipt for this payment shows up or
// the window closes. A 404 means the webhook has not landed yet and is the
// only error worth retrying. A missing payment-id, as happens when a buyer
// opens the landing page directly, fails immediately without polling.
func (f *ConfirmFlow) Confirm(c context.Context, paymentID string) (Receipt, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		f.mutex.Lock()
		defer f.mutex.Unlock()

		f.state = ConfirmStateFailed
		f.errorMessage = "No payment reference found in the redirect"
		return Receipt{}, errors.New("missing payment-id")
	}

	f.mutex.Lock()
	f.state = ConfirmStateLoading
	f.errorMessage = ""
	f.mutex.Unlock()

	var receipt Receipt
	err := retry.Do(c, retry.WithMaxDuration(f.cfg.PollMaxDuration, retry.NewConstant(f.cfg.PollInterval)), func(c context.Context) error {
		var err error
		receipt, err = f.client.ReceiptByPayment(c, paymentID)
		if err != nil {
			if IsNotFound(err) {
				return retry.RetryableError(err)
			}
			return err
		}

		return nil
	})

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if err != nil {
		f.state = ConfirmStateFailed
		f.errorMessage = err.Error()
		return Receipt{}, err
	}

	f.state = ConfirmStateSuccess
	f.receipt = receipt

	return receipt, nil
}
