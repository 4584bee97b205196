package storeapi

import (
	"strings"
	"time"
)

type AssetCategory string

const (
	CategoryFree     AssetCategory = "free"
	CategoryFeatured AssetCategory = "featured"
	CategoryPremium  AssetCategory = "premium"
)

// Asset is a downloadable catalog item. Assets are maintained out-of-band
// by an admin surface and are read-only to this backend.
type Asset struct {
	UID           string
	Title         string
	Description   string `datastore:",noindex"`
	Category      AssetCategory
	PriceLabel    string
	AmountInPaise int64
	Currency      string
	ImageURL      string `datastore:",noindex"`
	DownloadURL   string `datastore:",noindex"`
	SortOrder     int
	CreatedAt     time.Time
}

func (a Asset) IsFree() bool {
	return a.Category == CategoryFree
}

// CheckoutContext tracks one checkout attempt from order-creation until the
// final webhook. It is shared by all payment-provider services.
type CheckoutContext struct {
	CheckoutUID     string
	PaymentProvider string
	AssetUID        string
	AssetTitle      string
	BuyerEmail      string
	AmountInPaise   int64
	Currency        string
	ProviderOrderID string
	ReturnURL       string
	Status          string
	WebhookStatus   string
	WebhookSuccess  bool
	CreatedAt       time.Time
	LastModified    *time.Time
}

const (
	// Defaults substituted for missing optional purchase fields: a
	// malformed-but-present record should still render.
	DefaultAssetName  = "Unknown Asset"
	DefaultPriceLabel = "N/A"
)

// Purchase is the durable proof of a completed transaction. It is created
// exactly once per payment and immutable thereafter. The only way to
// retrieve it is the receipt-uid plus the buyer-email used at purchase time.
type Purchase struct {
	ReceiptUID    string
	AssetUID      string
	AssetName     string
	Price         string
	DownloadLink  string `datastore:",noindex"`
	PurchaseDate  string
	BuyerEmail    string
	PaymentID     string
	AmountInPaise int64
	Currency      string
	Verified      bool
	CreatedAt     time.Time
}

// Normalized substitutes defaults for missing optional fields
func (p Purchase) Normalized() Purchase {
	if p.AssetName == "" {
		p.AssetName = DefaultAssetName
	}
	if p.Price == "" {
		p.Price = DefaultPriceLabel
	}

	return p
}

func (p Purchase) MatchesEmail(email string) bool {
	return strings.EqualFold(strings.TrimSpace(p.BuyerEmail), strings.TrimSpace(email))
}
