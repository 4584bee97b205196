package purchaseflow

import (
	"github.com/rajuvisuals/storefront/services/storeapi"
)

// DownloadTarget describes how a download-url should be acted on: fetched
// in place or opened as an external landing page.
type DownloadTarget = storeapi.DownloadTarget

const (
	DownloadKindNone     = storeapi.DownloadKindNone
	DownloadKindDirect   = storeapi.DownloadKindDirect
	DownloadKindExternal = storeapi.DownloadKindExternal
)

// ResolveDownload resolves a receipt's download-url locally, for receipts
// from backends that do not send a downloadKind themselves.
func ResolveDownload(rawURL string) DownloadTarget {
	return storeapi.ResolveDownload(rawURL)
}
