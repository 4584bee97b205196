package storeapi

import (
	"fmt"
	"regexp"
	"strings"
)

type DownloadKind string

const (
	// DownloadKindNone means no download-link is available
	DownloadKindNone DownloadKind = "none"
	// DownloadKindDirect is a link that can be fetched as-is (same tab)
	DownloadKindDirect DownloadKind = "direct"
	// DownloadKindExternal is a landing page that must be opened in a new tab
	DownloadKindExternal DownloadKind = "external"
)

type DownloadTarget struct {
	URL  string
	Kind DownloadKind
}

var (
	driveSharePattern = regexp.MustCompile(`drive\.google\.com/file/d/([^/?#]+)`)

	archiveExtensions = []string{".zip", ".rar", ".7z"}
)

// ResolveDownload rewrites a stored download-url into something a browser can
// act on: Google Drive share-links become direct-download links, archives are
// downloaded in place and anything else is treated as an external landing
// page (e.g. a storefront product page).
func ResolveDownload(rawURL string) DownloadTarget {
	if rawURL == "" {
		return DownloadTarget{Kind: DownloadKindNone}
	}

	if matches := driveSharePattern.FindStringSubmatch(rawURL); matches != nil {
		return DownloadTarget{
			URL:  fmt.Sprintf("https://drive.google.com/uc?export=download&id=%s", matches[1]),
			Kind: DownloadKindDirect,
		}
	}

	lowered := strings.ToLower(rawURL)
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(lowered, ext) {
			return DownloadTarget{
				URL:  rawURL,
				Kind: DownloadKindDirect,
			}
		}
	}

	return DownloadTarget{
		URL:  rawURL,
		Kind: DownloadKindExternal,
	}
}
