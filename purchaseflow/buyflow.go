package purchaseflow

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
)

// BuyState is where a purchase dialog is in its lifecycle.
type BuyState string

const (
	BuyStateClosed          BuyState = "closed"
	BuyStateCollectingEmail BuyState = "collecting-email"
	BuyStateProcessing      BuyState = "processing"
	BuyStateComplete        BuyState = "complete"
	BuyStateError           BuyState = "error"
)

var buyerEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ErrSubmitInProgress is returned when a submit arrives while an earlier one
// is still being processed.
var ErrSubmitInProgress = errors.New("a purchase attempt is already in progress")

// BuyAsset is the item the dialog is selling.
type BuyAsset struct {
	UID        string
	Title      string
	PriceLabel string
}

// BuyFlow drives one purchase dialog: collect the buyer-email, run the
// checkout, verify the payment and end up holding the receipt.
type BuyFlow struct {
	client  *Client
	gateway *Gateway

	mutex        sync.Mutex
	state        BuyState
	asset        BuyAsset
	receipt      Receipt
	errorMessage string
}

func NewBuyFlow(client *Client, gateway *Gateway) *BuyFlow {
	return &BuyFlow{
		client:  client,
		gateway: gateway,
		state:   BuyStateClosed,
	}
}

func (f *BuyFlow) State() BuyState {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.state
}

func (f *BuyFlow) ErrorMessage() string {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.errorMessage
}

// Receipt is only meaningful once the state is BuyStateComplete.
func (f *BuyFlow) Receipt() Receipt {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.receipt
}

// Open starts a purchase dialog for the given asset.
func (f *BuyFlow) Open(asset BuyAsset) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.state = BuyStateCollectingEmail
	f.asset = asset
	f.receipt = Receipt{}
	f.errorMessage = ""
}

// Close abandons the dialog. Closing during processing is refused: the
// payment might already be underway on the platform.
func (f *BuyFlow) Close() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.state == BuyStateProcessing {
		return
	}

	f.state = BuyStateClosed
	f.asset = BuyAsset{}
	f.receipt = Receipt{}
	f.errorMessage = ""
}

// Submit validates the email and runs the purchase end-to-end. An invalid
// email never reaches the network. A second submit while one is running is
// refused.
func (f *BuyFlow) Submit(c context.Context, buyerEmail string) error {
	buyerEmail = strings.TrimSpace(buyerEmail)

	f.mutex.Lock()
	switch f.state {
	case BuyStateProcessing:
		f.mutex.Unlock()
		return ErrSubmitInProgress
	case BuyStateCollectingEmail, BuyStateError:
		// a failed or cancelled attempt may be retried
	default:
		f.mutex.Unlock()
		return errors.New("no purchase dialog is open")
	}

	if !buyerEmailPattern.MatchString(buyerEmail) {
		f.state = BuyStateCollectingEmail
		f.errorMessage = "Please enter a valid email address"
		f.mutex.Unlock()
		return errors.New("invalid email address")
	}

	f.state = BuyStateProcessing
	f.errorMessage = ""
	asset := f.asset
	f.mutex.Unlock()

	receipt, err := f.purchase(c, asset, buyerEmail)

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if err != nil {
		f.state = BuyStateError
		if errors.Is(err, ErrCheckoutCancelled) {
			// the buyer changed their mind: a non-alarming message
			f.errorMessage = "Payment was cancelled. You have not been charged."
		} else {
			f.errorMessage = err.Error()
		}
		return err
	}

	f.state = BuyStateComplete
	f.receipt = receipt

	return nil
}

func (f *BuyFlow) purchase(c context.Context, asset BuyAsset, buyerEmail string) (Receipt, error) {
	order, err := f.client.CreateOrder(c, asset.UID, buyerEmail)
	if err != nil {
		return Receipt{}, err
	}

	key := order.KeyID
	if key == "" {
		key = f.client.cfg.ClientKey
	}
	if key == "" {
		return Receipt{}, errors.New("checkout is not configured: no payment-platform key")
	}

	settlement, err := f.gateway.InitiatePayment(c, CheckoutOptions{
		Key:           key,
		OrderID:       order.OrderID,
		AmountInPaise: order.AmountInPaise,
		Currency:      order.Currency,
		Name:          asset.Title,
		Description:   order.AssetTitle,
		PrefillEmail:  buyerEmail,
	})
	if err != nil {
		return Receipt{}, err
	}

	return f.client.VerifyPayment(c, settlement)
}
