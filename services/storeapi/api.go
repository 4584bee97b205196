package storeapi

import (
	"context"
)

// PurchaseRequest carries everything a payment-provider service knows about
// a settled payment. The receipt side enriches it with asset details.
type PurchaseRequest struct {
	AssetUID      string
	BuyerEmail    string
	PaymentID     string
	AmountInPaise int64
	Currency      string
}

//go:generate mockgen -source=api.go -package storeapi -destination api_mock.go PurchaseCreator
type PurchaseCreator interface {
	// CreatePurchase must be idempotent per payment-id: both the
	// synchronous verify call and the asynchronous webhook invoke it.
	CreatePurchase(c context.Context, req PurchaseRequest) (Purchase, error)
}
