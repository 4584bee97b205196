package checkoutrazorpay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rajuvisuals/storefront/lib/myerrors"
	"github.com/rajuvisuals/storefront/lib/mylog"
	"github.com/rajuvisuals/storefront/lib/mypublisher"
	"github.com/rajuvisuals/storefront/lib/mystore"
	"github.com/rajuvisuals/storefront/lib/mytime"
	"github.com/rajuvisuals/storefront/lib/myuuid"
	"github.com/rajuvisuals/storefront/lib/myvault"
	"github.com/rajuvisuals/storefront/services/storeapi"
	"github.com/rajuvisuals/storefront/services/storeevents"
)

type service struct {
	fallbackCreds   myvault.Credentials
	payer           Payer
	logger          mylog.Logger
	nower           mytime.Nower
	uuider          myuuid.UUIDer
	vault           myvault.VaultReader
	checkoutStore   mystore.Store[storeapi.CheckoutContext]
	assetStore      mystore.Store[storeapi.Asset]
	purchaseCreator storeapi.PurchaseCreator
	publisher       mypublisher.Publisher
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(fallbackCreds myvault.Credentials, payer Payer, logger mylog.Logger, nower mytime.Nower, uuider myuuid.UUIDer, vault myvault.VaultReader, checkoutStore mystore.Store[storeapi.CheckoutContext], assetStore mystore.Store[storeapi.Asset], purchaseCreator storeapi.PurchaseCreator, publisher mypublisher.Publisher) *service {
	return &service{
		fallbackCreds:   fallbackCreds,
		payer:           payer,
		logger:          logger,
		nower:           nower,
		uuider:          uuider,
		vault:           vault,
		checkoutStore:   checkoutStore,
		assetStore:      assetStore,
		purchaseCreator: purchaseCreator,
		publisher:       publisher,
	}
}

func (s *service) CreateTopics(c context.Context) error {
	err := s.publisher.CreateTopic(c, storeevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", storeevents.TopicName, err)
	}

	return nil
}

func (s *service) credentials(c context.Context) myvault.Credentials {
	creds, found, err := s.vault.Get(c, myvault.UIDFor(providerName))
	if err != nil || !found || creds.KeyID == "" {
		return s.fallbackCreds
	}

	return creds
}

// createOrder creates an order on the payment-platform. The amount is taken
// from the stored asset: whatever the client claims the price is, is ignored.
func (s *service) createOrder(c context.Context, req CreateOrderRequest) (CreateOrderResponse, error) {
	now := s.nower.Now()

	if req.AssetUID == "" {
		return CreateOrderResponse{}, myerrors.NewInvalidInputError(fmt.Errorf("missing assetUid"))
	}

	asset, found, err := s.assetStore.Get(c, req.AssetUID)
	if err != nil {
		return CreateOrderResponse{}, myerrors.NewInternalError(err)
	}
	if !found {
		return CreateOrderResponse{}, myerrors.NewNotFoundError(fmt.Errorf("asset with uid %s not found", req.AssetUID))
	}
	if asset.IsFree() {
		return CreateOrderResponse{}, myerrors.NewInvalidInputError(fmt.Errorf("asset %s is free and needs no checkout", req.AssetUID))
	}
	if asset.AmountInPaise <= 0 {
		return CreateOrderResponse{}, myerrors.NewInternalError(fmt.Errorf("asset %s has no price", req.AssetUID))
	}

	checkoutUID := s.uuider.Create()

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Start checkout %s for asset %s", checkoutUID, req.AssetUID)

	creds := s.credentials(c)
	s.payer.UseCredentials(creds.KeyID, creds.KeySecret)

	order, err := s.payer.CreateOrder(c, OrderRequest{
		AmountInPaise: asset.AmountInPaise,
		Currency:      asset.Currency,
		ReceiptRef:    checkoutUID,
		Notes: map[string]interface{}{
			"assetUid":   req.AssetUID,
			"buyerEmail": req.BuyerEmail,
		},
	})
	if err != nil {
		return CreateOrderResponse{}, err
	}

	err = s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		// Keyed by the provider order-id: the verify call and the webhook
		// both identify a checkout by that id.
		err = s.checkoutStore.Put(c, order.OrderID, storeapi.CheckoutContext{
			CheckoutUID:     checkoutUID,
			PaymentProvider: providerName,
			AssetUID:        asset.UID,
			AssetTitle:      asset.Title,
			BuyerEmail:      req.BuyerEmail,
			AmountInPaise:   order.AmountInPaise,
			Currency:        order.Currency,
			ProviderOrderID: order.OrderID,
			ReturnURL:       req.ReturnURL,
			Status:          string(storeevents.CheckoutStatusPending),
			CreatedAt:       now,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing checkout: %s", err))
		}

		err = s.publisher.Publish(c, storeevents.TopicName, storeevents.CheckoutStarted{
			CheckoutUID:   checkoutUID,
			ProviderName:  providerName,
			AssetUID:      asset.UID,
			BuyerEmail:    req.BuyerEmail,
			AmountInPaise: order.AmountInPaise,
			Currency:      order.Currency,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
	if err != nil {
		return CreateOrderResponse{}, err
	}

	return CreateOrderResponse{
		OrderID:       order.OrderID,
		AmountInPaise: order.AmountInPaise,
		Currency:      order.Currency,
		KeyID:         creds.KeyID,
		AssetTitle:    asset.Title,
	}, nil
}

// verifyPayment checks the signature the checkout widget returned and, when
// genuine, settles the checkout and creates the purchase-receipt.
func (s *service) verifyPayment(c context.Context, req VerifyPaymentRequest) (VerifyPaymentResponse, error) {
	now := s.nower.Now()

	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return VerifyPaymentResponse{}, myerrors.NewInvalidInputError(fmt.Errorf("missing order-id, payment-id or signature"))
	}

	creds := s.credentials(c)
	if !isValidPaymentSignature(creds.KeySecret, req.OrderID, req.PaymentID, req.Signature) {
		s.logger.Log(c, req.OrderID, mylog.SeverityWarn, "Signature mismatch on payment %s for order %s", req.PaymentID, req.OrderID)

		s.markCheckoutFailed(c, req.OrderID, now)

		return VerifyPaymentResponse{}, myerrors.NewAuthenticationError(fmt.Errorf("payment signature mismatch"))
	}

	var checkoutContext storeapi.CheckoutContext
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		var found bool
		var err error
		checkoutContext, found, err = s.checkoutStore.Get(c, req.OrderID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout for order %s: %s", req.OrderID, err))
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout for order %s not found", req.OrderID))
		}

		checkoutContext.Status = string(storeevents.CheckoutStatusSuccess)
		checkoutContext.LastModified = &now

		err = s.checkoutStore.Put(c, req.OrderID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, storeevents.TopicName, storeevents.CheckoutCompleted{
			CheckoutUID:   checkoutContext.CheckoutUID,
			ProviderName:  providerName,
			AssetUID:      checkoutContext.AssetUID,
			AssetTitle:    checkoutContext.AssetTitle,
			BuyerEmail:    checkoutContext.BuyerEmail,
			PaymentID:     req.PaymentID,
			AmountInPaise: checkoutContext.AmountInPaise,
			Currency:      checkoutContext.Currency,
			Status:        storeevents.CheckoutStatusSuccess,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
	if err != nil {
		return VerifyPaymentResponse{}, err
	}

	// Created here so the caller gets its receipt-uid in this same response.
	// The webhook path creates it too: creation is idempotent per payment-id.
	purchase, err := s.purchaseCreator.CreatePurchase(c, storeapi.PurchaseRequest{
		AssetUID:      checkoutContext.AssetUID,
		BuyerEmail:    checkoutContext.BuyerEmail,
		PaymentID:     req.PaymentID,
		AmountInPaise: checkoutContext.AmountInPaise,
		Currency:      checkoutContext.Currency,
	})
	if err != nil {
		return VerifyPaymentResponse{}, err
	}

	s.logger.Log(c, checkoutContext.CheckoutUID, mylog.SeverityInfo, "Verified payment %s for checkout %s: receipt %s", req.PaymentID, checkoutContext.CheckoutUID, purchase.ReceiptUID)

	return VerifyPaymentResponse{
		Verified:   true,
		ReceiptUID: purchase.ReceiptUID,
	}, nil
}

func (s *service) markCheckoutFailed(c context.Context, orderID string, now time.Time) {
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		checkoutContext, found, err := s.checkoutStore.Get(c, orderID)
		if err != nil || !found {
			return nil
		}

		checkoutContext.Status = string(storeevents.CheckoutStatusFailed)
		checkoutContext.LastModified = &now

		return s.checkoutStore.Put(c, orderID, checkoutContext)
	})
	if err != nil {
		s.logger.Log(c, orderID, mylog.SeverityWarn, "Error marking checkout for order %s failed: %s", orderID, err)
	}
}

// webhookNotification is the asynchronous confirmation from the payment
// platform. It is the safety-net for buyers who never returned to the site
// after paying.
func (s *service) webhookNotification(c context.Context, signature string, body []byte) error {
	now := s.nower.Now()

	creds := s.credentials(c)
	if !isValidWebhookSignature(creds.WebhookSecret, body, signature) {
		return myerrors.NewAuthenticationError(fmt.Errorf("webhook signature mismatch"))
	}

	event := WebhookEvent{}
	err := json.Unmarshal(body, &event)
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("error parsing webhook payload: %s", err))
	}

	if event.Event != eventPaymentCaptured {
		s.logger.Log(c, "", mylog.SeverityInfo, "Ignoring webhook event %s", event.Event)
		return nil
	}

	payment := event.Payload.Payment.Entity

	var checkoutContext storeapi.CheckoutContext
	var found bool
	err = s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		checkoutContext, found, err = s.checkoutStore.Get(c, payment.OrderID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout for order %s: %s", payment.OrderID, err))
		}
		if !found {
			return nil
		}

		checkoutContext.WebhookStatus = payment.Status
		checkoutContext.WebhookSuccess = true
		checkoutContext.LastModified = &now

		err = s.checkoutStore.Put(c, payment.OrderID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, storeevents.TopicName, storeevents.CheckoutCompleted{
			CheckoutUID:   checkoutContext.CheckoutUID,
			ProviderName:  providerName,
			AssetUID:      checkoutContext.AssetUID,
			AssetTitle:    checkoutContext.AssetTitle,
			BuyerEmail:    checkoutContext.BuyerEmail,
			PaymentID:     payment.ID,
			AmountInPaise: checkoutContext.AmountInPaise,
			Currency:      checkoutContext.Currency,
			Status:        storeevents.CheckoutStatusSuccess,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
	if err != nil {
		return err
	}

	if !found {
		// A capture for an order we never created: acknowledge so the
		// platform stops retrying, but leave a trace.
		s.logger.Log(c, payment.OrderID, mylog.SeverityWarn, "Webhook for unknown order %s (payment %s)", payment.OrderID, payment.ID)
		return nil
	}

	_, err = s.purchaseCreator.CreatePurchase(c, storeapi.PurchaseRequest{
		AssetUID:      checkoutContext.AssetUID,
		BuyerEmail:    checkoutContext.BuyerEmail,
		PaymentID:     payment.ID,
		AmountInPaise: checkoutContext.AmountInPaise,
		Currency:      checkoutContext.Currency,
	})
	if err != nil {
		return err
	}

	s.logger.Log(c, checkoutContext.CheckoutUID, mylog.SeverityInfo, "Webhook settled checkout %s (payment %s)", checkoutContext.CheckoutUID, payment.ID)

	return nil
}

// assetForCheckout serves the hosted checkout-page.
func (s *service) assetForCheckout(c context.Context, assetUID string) (storeapi.Asset, error) {
	asset, found, err := s.assetStore.Get(c, assetUID)
	if err != nil {
		return storeapi.Asset{}, myerrors.NewInternalError(err)
	}
	if !found {
		return storeapi.Asset{}, myerrors.NewNotFoundError(fmt.Errorf("asset with uid %s not found", assetUID))
	}
	if asset.IsFree() {
		return storeapi.Asset{}, myerrors.NewInvalidInputError(fmt.Errorf("asset %s is free and needs no checkout", assetUID))
	}

	return asset, nil
}
