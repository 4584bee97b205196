package checkoutrazorpay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentSignature(t *testing.T) {
	sig := paymentSignature("my_key_secret", "order_123", "pay_456")

	assert.True(t, isValidPaymentSignature("my_key_secret", "order_123", "pay_456", sig))
	assert.False(t, isValidPaymentSignature("my_key_secret", "order_123", "pay_456", sig+"00"))
	assert.False(t, isValidPaymentSignature("other_secret", "order_123", "pay_456", sig))
	assert.False(t, isValidPaymentSignature("my_key_secret", "order_999", "pay_456", sig))
}

func TestWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	sig := webhookSignature("my_webhook_secret", body)

	assert.True(t, isValidWebhookSignature("my_webhook_secret", body, sig))
	assert.False(t, isValidWebhookSignature("my_webhook_secret", []byte(`{}`), sig))
	assert.False(t, isValidWebhookSignature("other_secret", body, sig))
}
