package purchaseflow

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// LookupState is where a receipt lookup is in its lifecycle.
type LookupState string

const (
	LookupStateUnverified LookupState = "unverified"
	LookupStateVerifying  LookupState = "verifying"
	LookupStateVerified   LookupState = "verified"
)

// LookupFlow drives the verify-receipt form: receipt-id plus email in,
// receipt details out.
type LookupFlow struct {
	client *Client

	mutex        sync.Mutex
	state        LookupState
	receipt      Receipt
	errorMessage string
}

func NewLookupFlow(client *Client) *LookupFlow {
	return &LookupFlow{
		client: client,
		state:  LookupStateUnverified,
	}
}

func (f *LookupFlow) State() LookupState {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.state
}

// ErrorMessage is the backend's message, verbatim. A failed lookup returns
// to LookupStateUnverified with the message set, so the form stays usable.
func (f *LookupFlow) ErrorMessage() string {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.errorMessage
}

func (f *LookupFlow) Receipt() Receipt {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.receipt
}

// Reset clears a previous lookup so the form can be used again.
func (f *LookupFlow) Reset() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.state == LookupStateVerifying {
		return
	}

	f.state = LookupStateUnverified
	f.receipt = Receipt{}
	f.errorMessage = ""
}

// Verify runs the two-factor lookup. Empty or malformed input never
// reaches the network.
func (f *LookupFlow) Verify(c context.Context, receiptID string, email string) error {
	receiptID = strings.TrimSpace(receiptID)
	email = strings.TrimSpace(email)

	f.mutex.Lock()
	if f.state == LookupStateVerifying {
		f.mutex.Unlock()
		return errors.New("a lookup is already in progress")
	}

	if receiptID == "" || email == "" {
		f.errorMessage = "Both receipt-id and email are needed"
		f.state = LookupStateUnverified
		f.mutex.Unlock()
		return errors.New("missing receipt-id or email")
	}

	if !buyerEmailPattern.MatchString(email) {
		f.errorMessage = "Please enter a valid email address"
		f.state = LookupStateUnverified
		f.mutex.Unlock()
		return errors.New("invalid email address")
	}

	f.state = LookupStateVerifying
	f.errorMessage = ""
	f.mutex.Unlock()

	receipt, err := f.client.VerifyReceipt(c, receiptID, email)

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if err != nil {
		f.state = LookupStateUnverified
		f.errorMessage = err.Error()
		return err
	}

	f.state = LookupStateVerified
	f.receipt = receipt

	return nil
}
