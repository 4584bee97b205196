package receipt

import (
	"context"
	"fmt"
	"strings"

	"github.com/rajuvisuals/storefront/lib/myerrors"
	"github.com/rajuvisuals/storefront/lib/mylog"
	"github.com/rajuvisuals/storefront/lib/mypublisher"
	"github.com/rajuvisuals/storefront/lib/mypubsub"
	"github.com/rajuvisuals/storefront/lib/mystore"
	"github.com/rajuvisuals/storefront/lib/mytime"
	"github.com/rajuvisuals/storefront/lib/myuuid"
	"github.com/rajuvisuals/storefront/services/storeapi"
	"github.com/rajuvisuals/storefront/services/storeevents"
)

const purchaseDateFormat = "2 January 2006"

type service struct {
	purchaseStore   mystore.Store[storeapi.Purchase]
	paymentRefStore mystore.Store[PaymentRef]
	assetStore      mystore.Store[storeapi.Asset]
	logger          mylog.Logger
	nower           mytime.Nower
	uuider          myuuid.UUIDer
	subscriber      mypubsub.PubSub
	publisher       mypublisher.Publisher
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(purchaseStore mystore.Store[storeapi.Purchase], paymentRefStore mystore.Store[PaymentRef], assetStore mystore.Store[storeapi.Asset], logger mylog.Logger, nower mytime.Nower, uuider myuuid.UUIDer, subscriber mypubsub.PubSub, publisher mypublisher.Publisher) *service {
	return &service{
		purchaseStore:   purchaseStore,
		paymentRefStore: paymentRefStore,
		assetStore:      assetStore,
		logger:          logger,
		nower:           nower,
		uuider:          uuider,
		subscriber:      subscriber,
		publisher:       publisher,
	}
}

// CreatePurchase turns a settled payment into a durable receipt. It is
// idempotent per payment-id: the first call creates, later calls return the
// receipt created before.
func (s *service) CreatePurchase(c context.Context, req storeapi.PurchaseRequest) (storeapi.Purchase, error) {
	now := s.nower.Now()

	if req.PaymentID == "" {
		return storeapi.Purchase{}, myerrors.NewInvalidInputError(fmt.Errorf("missing payment-id"))
	}

	var purchase storeapi.Purchase
	err := s.paymentRefStore.RunInTransaction(c, func(c context.Context) error {
		ref, found, err := s.paymentRefStore.Get(c, req.PaymentID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching payment-ref %s: %s", req.PaymentID, err))
		}
		if found {
			existing, exists, err := s.purchaseStore.Get(c, ref.ReceiptUID)
			if err != nil {
				return myerrors.NewInternalError(err)
			}
			if !exists {
				return myerrors.NewInternalError(fmt.Errorf("payment %s refers to missing receipt %s", req.PaymentID, ref.ReceiptUID))
			}
			purchase = existing

			return nil
		}

		// Enrich with asset details. A missing asset does not block the
		// receipt: the payment already happened.
		asset, _, err := s.assetStore.Get(c, req.AssetUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		purchase = storeapi.Purchase{
			ReceiptUID:    newReceiptUID(now, s.uuider.Create()),
			AssetUID:      req.AssetUID,
			AssetName:     asset.Title,
			Price:         asset.PriceLabel,
			DownloadLink:  asset.DownloadURL,
			PurchaseDate:  now.Format(purchaseDateFormat),
			BuyerEmail:    req.BuyerEmail,
			PaymentID:     req.PaymentID,
			AmountInPaise: req.AmountInPaise,
			Currency:      req.Currency,
			Verified:      true,
			CreatedAt:     now,
		}

		err = s.purchaseStore.Put(c, purchase.ReceiptUID, purchase)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing purchase: %s", err))
		}

		err = s.paymentRefStore.Put(c, req.PaymentID, PaymentRef{
			PaymentID:  req.PaymentID,
			ReceiptUID: purchase.ReceiptUID,
			CreatedAt:  now,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing payment-ref: %s", err))
		}

		err = s.publisher.Publish(c, storeevents.TopicName, storeevents.PurchaseCreated{
			ReceiptUID: purchase.ReceiptUID,
			AssetUID:   purchase.AssetUID,
			PaymentID:  purchase.PaymentID,
			BuyerEmail: purchase.BuyerEmail,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		s.logger.Log(c, purchase.ReceiptUID, mylog.SeverityInfo, "Created receipt %s for payment %s", purchase.ReceiptUID, purchase.PaymentID)

		return nil
	})
	if err != nil {
		return storeapi.Purchase{}, err
	}

	return purchase, nil
}

// verifyReceipt is the two-factor lookup: a receipt is only handed out when
// both the receipt-uid and the buyer-email of the purchase match.
func (s *service) verifyReceipt(c context.Context, receiptUID string, email string) (storeapi.Purchase, error) {
	receiptUID = strings.TrimSpace(receiptUID)
	email = strings.TrimSpace(email)

	if receiptUID == "" || email == "" {
		return storeapi.Purchase{}, myerrors.NewInvalidInputError(fmt.Errorf("missing receipt-id or email"))
	}

	purchase, found, err := s.purchaseStore.Get(c, receiptUID)
	if err != nil {
		return storeapi.Purchase{}, myerrors.NewInternalError(err)
	}
	if !found {
		return storeapi.Purchase{}, myerrors.NewNotFoundError(fmt.Errorf("no purchase found for receipt-id %s", receiptUID))
	}

	if !purchase.MatchesEmail(email) {
		s.logger.Log(c, receiptUID, mylog.SeverityWarn, "Email mismatch on receipt %s", receiptUID)
		return storeapi.Purchase{}, myerrors.NewAuthenticationError(fmt.Errorf("email does not match receipt %s", receiptUID))
	}

	return purchase.Normalized(), nil
}

// getByPayment is polled by buyers returning from an out-of-band checkout:
// it resolves once the webhook has created the receipt.
func (s *service) getByPayment(c context.Context, paymentID string) (storeapi.Purchase, error) {
	ref, found, err := s.paymentRefStore.Get(c, paymentID)
	if err != nil {
		return storeapi.Purchase{}, myerrors.NewInternalError(err)
	}
	if !found {
		return storeapi.Purchase{}, myerrors.NewNotFoundError(fmt.Errorf("no purchase found for payment %s", paymentID))
	}

	purchase, found, err := s.purchaseStore.Get(c, ref.ReceiptUID)
	if err != nil {
		return storeapi.Purchase{}, myerrors.NewInternalError(err)
	}
	if !found {
		return storeapi.Purchase{}, myerrors.NewNotFoundError(fmt.Errorf("receipt %s not found", ref.ReceiptUID))
	}

	return purchase.Normalized(), nil
}

func (s *service) getReceipt(c context.Context, receiptUID string) (storeapi.Purchase, bool, error) {
	purchase, found, err := s.purchaseStore.Get(c, receiptUID)
	if err != nil {
		return storeapi.Purchase{}, false, myerrors.NewInternalError(err)
	}

	return purchase.Normalized(), found, nil
}

func toReceiptResponse(purchase storeapi.Purchase) ReceiptResponse {
	target := storeapi.ResolveDownload(purchase.DownloadLink)

	return ReceiptResponse{
		ReceiptID:    purchase.ReceiptUID,
		AssetName:    purchase.AssetName,
		Price:        purchase.Price,
		PurchaseDate: purchase.PurchaseDate,
		DownloadURL:  target.URL,
		DownloadKind: string(target.Kind),
		Verified:     purchase.Verified,
	}
}
