package checkoutstripe

import (
	"context"
	"fmt"
	"net/url"

	"github.com/stripe/stripe-go/v74"

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

const (
	providerName = "stripe"

	eventCheckoutSessionCompleted = "checkout.session.completed"
)

type service struct {
	fallbackCreds myvault.Credentials
	payer         Payer
	logger        mylog.Logger
	nower         mytime.Nower
	uuider        myuuid.UUIDer
	vault         myvault.VaultReader
	checkoutStore mystore.Store[storeapi.CheckoutContext]
	assetStore    mystore.Store[storeapi.Asset]
	publisher     mypublisher.Publisher
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(fallbackCreds myvault.Credentials, payer Payer, logger mylog.Logger, nower mytime.Nower, uuider myuuid.UUIDer, vault myvault.VaultReader, checkoutStore mystore.Store[storeapi.CheckoutContext], assetStore mystore.Store[storeapi.Asset], publisher mypublisher.Publisher) *service {
	return &service{
		fallbackCreds: fallbackCreds,
		payer:         payer,
		logger:        logger,
		nower:         nower,
		uuider:        uuider,
		vault:         vault,
		checkoutStore: checkoutStore,
		assetStore:    assetStore,
		publisher:     publisher,
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
	if err != nil || !found || creds.KeySecret == "" {
		return s.fallbackCreds
	}

	return creds
}

// startCheckout creates a checkout-session on the payment-platform and hands
// back the url to redirect the buyer to. The session carries a single
// line-item: the asset being bought, priced from the store.
func (s *service) startCheckout(c context.Context, assetUID string, buyerEmail string, returnURL string, hostname string) (string, error) {
	now := s.nower.Now()

	asset, found, err := s.assetStore.Get(c, assetUID)
	if err != nil {
		return "", myerrors.NewInternalError(err)
	}
	if !found {
		return "", myerrors.NewNotFoundError(fmt.Errorf("asset with uid %s not found", assetUID))
	}
	if asset.IsFree() {
		return "", myerrors.NewInvalidInputError(fmt.Errorf("asset %s is free and needs no checkout", assetUID))
	}

	checkoutUID := s.uuider.Create()

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Start stripe checkout %s for asset %s", checkoutUID, assetUID)

	creds := s.credentials(c)
	s.payer.UseApiKey(creds.KeySecret)

	session, err := s.payer.CreateCheckoutSession(c, stripe.CheckoutSessionParams{
		SuccessURL:        stripe.String(hostname + fmt.Sprintf("/stripe/checkout/%s/status/success", checkoutUID)),
		CancelURL:         stripe.String(hostname + fmt.Sprintf("/stripe/checkout/%s/status/cancelled", checkoutUID)),
		ClientReferenceID: stripe.String(checkoutUID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(asset.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(asset.Title),
						Description: stripe.String(asset.Description),
					},
					UnitAmount: stripe.Int64(asset.AmountInPaise),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		Currency:      stripe.String(asset.Currency),
		CustomerEmail: stripe.String(buyerEmail),
		Params: stripe.Params{
			Metadata: map[string]string{
				"checkoutUID": checkoutUID,
				"assetUID":    assetUID,
			},
		},
	})
	if err != nil {
		return "", err
	}

	err = s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		err = s.checkoutStore.Put(c, checkoutUID, storeapi.CheckoutContext{
			CheckoutUID:     checkoutUID,
			PaymentProvider: providerName,
			AssetUID:        asset.UID,
			AssetTitle:      asset.Title,
			BuyerEmail:      buyerEmail,
			AmountInPaise:   asset.AmountInPaise,
			Currency:        asset.Currency,
			ProviderOrderID: session.ID,
			ReturnURL:       returnURL,
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
			BuyerEmail:    buyerEmail,
			AmountInPaise: asset.AmountInPaise,
			Currency:      asset.Currency,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return session.URL, nil
}

// finalizeCheckout handles the redirect back from the payment-platform and
// sends the buyer on to where the checkout started.
func (s *service) finalizeCheckout(c context.Context, checkoutUID string, status string) (string, error) {
	now := s.nower.Now()

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Stripe checkout %s finalized with status %s", checkoutUID, status)

	adjustedReturnURL := ""
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		checkoutContext, found, err := s.checkoutStore.Get(c, checkoutUID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout with uid %s: %s", checkoutUID, err))
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
		}

		checkoutContext.Status = status
		checkoutContext.LastModified = &now

		err = s.checkoutStore.Put(c, checkoutUID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		adjustedReturnURL, err = addStatusQueryParam(checkoutContext.ReturnURL, status)
		if err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return adjustedReturnURL, nil
}

// webhookNotification settles the checkout when the payment-platform
// confirms the session completed. The purchase-receipt is created by the
// receipt side upon the published event.
func (s *service) webhookNotification(c context.Context, event stripe.Event) error {
	now := s.nower.Now()

	if event.Type != eventCheckoutSessionCompleted {
		s.logger.Log(c, "", mylog.SeverityInfo, "Ignoring stripe event %s", event.Type)
		return nil
	}

	checkoutUID, paymentID := extractSessionDetails(event)
	if checkoutUID == "" {
		return myerrors.NewInvalidInputError(fmt.Errorf("stripe event without checkout reference"))
	}

	return s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		checkoutContext, found, err := s.checkoutStore.Get(c, checkoutUID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout with uid %s: %s", checkoutUID, err))
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
		}

		checkoutContext.WebhookStatus = string(event.Type)
		checkoutContext.WebhookSuccess = true
		checkoutContext.LastModified = &now

		err = s.checkoutStore.Put(c, checkoutUID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, storeevents.TopicName, storeevents.CheckoutCompleted{
			CheckoutUID:   checkoutContext.CheckoutUID,
			ProviderName:  providerName,
			AssetUID:      checkoutContext.AssetUID,
			AssetTitle:    checkoutContext.AssetTitle,
			BuyerEmail:    checkoutContext.BuyerEmail,
			PaymentID:     paymentID,
			AmountInPaise: checkoutContext.AmountInPaise,
			Currency:      checkoutContext.Currency,
			Status:        storeevents.CheckoutStatusSuccess,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
}

func extractSessionDetails(event stripe.Event) (string, string) {
	checkoutUID := ""
	paymentID := ""

	if metadata, ok := event.Data.Object["metadata"].(map[string]interface{}); ok {
		checkoutUID, _ = metadata["checkoutUID"].(string)
	}
	if clientReference, ok := event.Data.Object["client_reference_id"].(string); ok && checkoutUID == "" {
		checkoutUID = clientReference
	}
	if intent, ok := event.Data.Object["payment_intent"].(string); ok {
		paymentID = intent
	}

	return checkoutUID, paymentID
}

func addStatusQueryParam(orgURL string, status string) (string, error) {
	u, err := url.Parse(orgURL)
	if err != nil {
		return "", myerrors.NewInternalError(fmt.Errorf("error parsing return-url %s: %s", orgURL, err))
	}
	params := u.Query()
	params.Set("status", status)
	u.RawQuery = params.Encode()

	return u.String(), nil
}
