package purchaseflow

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
)

const receiptPathPrefix = "/receipt/"

// ErrClipboardUnavailable is returned when the platform has no clipboard;
// callers should fall back to showing the text for manual copying.
var ErrClipboardUnavailable = errors.New("clipboard unavailable on this platform")

// ReceiptPath turns a receipt-id into the path of its receipt page. It is
// idempotent: feeding it a path it produced returns that same path.
func ReceiptPath(receiptID string) string {
	receiptID = strings.TrimSpace(receiptID)
	if strings.HasPrefix(receiptID, receiptPathPrefix) {
		return receiptID
	}

	return receiptPathPrefix + receiptID
}

// CopyReceipt puts the receipt-id on the clipboard and returns the text
// that was (or should be) copied.
func CopyReceipt(receiptID string) (string, error) {
	text := strings.TrimSpace(receiptID)

	if clipboard.Unsupported {
		return text, ErrClipboardUnavailable
	}

	err := clipboard.WriteAll(text)
	if err != nil {
		return text, ErrClipboardUnavailable
	}

	return text, nil
}
