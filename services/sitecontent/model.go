package sitecontent

import (
	"time"
)

const currentContentUID = "current"

// SiteContent is the editable copy of the storefront: texts and links that
// change without a redeploy. Maintained out-of-band by an admin surface.
type SiteContent struct {
	HeroTitle    string    `json:"heroTitle"`
	HeroSubtitle string    `json:"heroSubtitle"`
	AboutText    string    `json:"aboutText" datastore:",noindex"`
	ThemeColor   string    `json:"themeColor"`
	InstagramURL string    `json:"instagramUrl"`
	YoutubeURL   string    `json:"youtubeUrl"`
	ContactEmail string    `json:"contactEmail"`
	LastModified time.Time `json:"-"`
}
