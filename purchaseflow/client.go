package purchaseflow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rajuvisuals/storefront/lib/myhttpclient"
	"github.com/rajuvisuals/storefront/lib/mylog"
)

// Order is what the backend prepared on the payment-platform.
type Order struct {
	OrderID       string `json:"orderId"`
	AmountInPaise int64  `json:"amount"`
	Currency      string `json:"currency"`
	KeyID         string `json:"keyId"`
	AssetTitle    string `json:"assetTitle"`
}

// Receipt is the buyer-facing view of a purchase.
type Receipt struct {
	ReceiptID    string `json:"receiptId"`
	AssetName    string `json:"assetName"`
	Price        string `json:"price"`
	PurchaseDate string `json:"purchaseDate"`
	DownloadURL  string `json:"downloadUrl"`
	DownloadKind string `json:"downloadKind"`
	Verified     bool   `json:"verified"`
}

const (
	defaultAssetName  = "Unknown Asset"
	defaultPriceLabel = "N/A"
)

// normalized substitutes defaults for missing optional fields so a receipt
// from an older backend still renders.
func (r Receipt) normalized() Receipt {
	if r.AssetName == "" {
		r.AssetName = defaultAssetName
	}
	if r.Price == "" {
		r.Price = defaultPriceLabel
	}

	return r
}

// RemoteError carries the backend's own message, to be shown verbatim.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// IsNotFound tells whether the error is a backend 404.
func IsNotFound(err error) bool {
	remoteErr, ok := err.(*RemoteError)
	return ok && remoteErr.StatusCode == http.StatusNotFound
}

// Client talks to the storefront backend.
type Client struct {
	cfg    Config
	sender myhttpclient.HTTPSender
	logger mylog.Logger
}

func NewClient(cfg Config, sender myhttpclient.HTTPSender) *Client {
	return &Client{
		cfg:    cfg.withDefaults(),
		sender: sender,
		logger: mylog.New("purchaseflow"),
	}
}

func (cl *Client) CreateOrder(c context.Context, assetUID string, buyerEmail string) (Order, error) {
	order := Order{}
	err := cl.call(c, http.MethodPost, "/api/checkout/order", map[string]string{
		"assetUid":   assetUID,
		"buyerEmail": buyerEmail,
	}, &order)
	if err != nil {
		return Order{}, err
	}

	return order, nil
}

func (cl *Client) VerifyPayment(c context.Context, settlement PaymentSettlement) (Receipt, error) {
	resp := struct {
		Verified   bool   `json:"verified"`
		ReceiptUID string `json:"receiptId"`
	}{}
	err := cl.call(c, http.MethodPost, "/api/checkout/verify", map[string]string{
		"razorpay_order_id":   settlement.OrderID,
		"razorpay_payment_id": settlement.PaymentID,
		"razorpay_signature":  settlement.Signature,
	}, &resp)
	if err != nil {
		return Receipt{}, err
	}
	if !resp.Verified {
		return Receipt{}, &RemoteError{StatusCode: http.StatusForbidden, Message: "payment could not be verified"}
	}

	return Receipt{ReceiptID: resp.ReceiptUID, Verified: true}.normalized(), nil
}

func (cl *Client) VerifyReceipt(c context.Context, receiptID string, email string) (Receipt, error) {
	receipt := Receipt{}
	err := cl.call(c, http.MethodPost, "/api/receipt/verify", map[string]string{
		"receiptId": receiptID,
		"email":     email,
	}, &receipt)
	if err != nil {
		return Receipt{}, err
	}

	return receipt.normalized(), nil
}

func (cl *Client) ReceiptByPayment(c context.Context, paymentID string) (Receipt, error) {
	receipt := Receipt{}
	err := cl.call(c, http.MethodGet, "/api/receipt/by-payment/"+url.PathEscape(paymentID), nil, &receipt)
	if err != nil {
		return Receipt{}, err
	}

	return receipt.normalized(), nil
}

func (cl *Client) call(c context.Context, method string, path string, reqPayload any, respPayload any) error {
	c, cancel := context.WithTimeout(c, cl.cfg.RequestTimeout)
	defer cancel()

	var body []byte
	if reqPayload != nil {
		var err error
		body, err = json.Marshal(reqPayload)
		if err != nil {
			return fmt.Errorf("error marshalling request for %s: %s", path, err)
		}
	}

	status, respBody, err := cl.sender.Send(c, method, cl.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("error calling %s: %s", path, err)
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return &RemoteError{
			StatusCode: status,
			Message:    extractErrorMessage(respBody, status),
		}
	}

	err = json.Unmarshal(respBody, respPayload)
	if err != nil {
		return fmt.Errorf("error parsing response of %s: %s", path, err)
	}

	return nil
}

func extractErrorMessage(body []byte, status int) string {
	resp := struct {
		Message string `json:"Message"`
	}{}
	err := json.Unmarshal(body, &resp)
	if err != nil || resp.Message == "" {
		return fmt.Sprintf("request failed with status %d", status)
	}

	return resp.Message
}
