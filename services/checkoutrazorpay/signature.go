package checkoutrazorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// paymentSignature is the hmac-sha256 over "<orderID>|<paymentID>" that the
// checkout widget hands back after a successful payment.
func paymentSignature(keySecret string, orderID string, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(fmt.Sprintf("%s|%s", orderID, paymentID)))
	return hex.EncodeToString(mac.Sum(nil))
}

func isValidPaymentSignature(keySecret string, orderID string, paymentID string, signature string) bool {
	expected := paymentSignature(keySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// webhookSignature is the hmac-sha256 over the raw request-body that the
// platform sends along in the X-Razorpay-Signature header.
func webhookSignature(webhookSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func isValidWebhookSignature(webhookSecret string, body []byte, signature string) bool {
	expected := webhookSignature(webhookSecret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
