package receipt

import (
	"time"
)

// PaymentRef maps a provider payment-id onto the receipt it produced. It is
// what makes purchase-creation idempotent: the synchronous verify call and
// the asynchronous webhook both settle the same payment.
type PaymentRef struct {
	PaymentID  string
	ReceiptUID string
	CreatedAt  time.Time
}

type VerifyReceiptRequest struct {
	ReceiptID string `json:"receiptId"`
	Email     string `json:"email"`
}

type ReceiptResponse struct {
	ReceiptID    string `json:"receiptId"`
	AssetName    string `json:"assetName"`
	Price        string `json:"price"`
	PurchaseDate string `json:"purchaseDate"`
	DownloadURL  string `json:"downloadUrl,omitempty"`
	DownloadKind string `json:"downloadKind"`
	Verified     bool   `json:"verified"`
}
