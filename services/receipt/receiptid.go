package receipt

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const receiptUIDPrefix = "RCP"

var receiptUIDPattern = regexp.MustCompile(`^RCP-[0-9a-f]+-[A-Z0-9]{6}$`)

// newReceiptUID composes a human-quotable receipt-uid: the unix-timestamp in
// hex plus a short random suffix, e.g. RCP-65eaf00d-AB12CD.
func newReceiptUID(now time.Time, entropy string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(entropy, "-", ""))
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}

	return fmt.Sprintf("%s-%x-%s", receiptUIDPrefix, now.Unix(), suffix)
}

func isReceiptUID(uid string) bool {
	return receiptUIDPattern.MatchString(uid)
}
