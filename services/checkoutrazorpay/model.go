package checkoutrazorpay

const (
	providerName = "razorpay"

	webhookSignatureHeader = "X-Razorpay-Signature"

	eventPaymentCaptured = "payment.captured"
)

type CreateOrderRequest struct {
	AssetUID   string `json:"assetUid"`
	BuyerEmail string `json:"buyerEmail"`
	ReturnURL  string `json:"returnUrl"`
}

type CreateOrderResponse struct {
	OrderID       string `json:"orderId"`
	AmountInPaise int64  `json:"amount"`
	Currency      string `json:"currency"`
	KeyID         string `json:"keyId"`
	AssetTitle    string `json:"assetTitle"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

type VerifyPaymentResponse struct {
	Verified   bool   `json:"verified"`
	ReceiptUID string `json:"receiptId"`
}

// WebhookEvent is the subset of the webhook payload we act on.
type WebhookEvent struct {
	Event   string         `json:"event"`
	Payload WebhookPayload `json:"payload"`
}

type WebhookPayload struct {
	Payment WebhookPayment `json:"payment"`
}

type WebhookPayment struct {
	Entity PaymentEntity `json:"entity"`
}

type PaymentEntity struct {
	ID       string            `json:"id"`
	OrderID  string            `json:"order_id"`
	Status   string            `json:"status"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Email    string            `json:"email"`
	Notes    map[string]string `json:"notes"`
}
