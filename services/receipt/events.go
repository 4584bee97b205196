package receipt

import (
	"context"
	"fmt"

	"github.com/rajuvisuals/storefront/lib/myhttp"
	"github.com/rajuvisuals/storefront/lib/mylog"
	"github.com/rajuvisuals/storefront/services/storeapi"
	"github.com/rajuvisuals/storefront/services/storeevents"
)

func (s *service) Subscribe(c context.Context) error {
	err := s.subscriber.CreateTopic(c, storeevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", storeevents.TopicName, err)
	}

	err = s.subscriber.Subscribe(c, storeevents.TopicName, myhttp.GuessHostnameWithScheme()+"/api/receipt/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", storeevents.TopicName, err)
	}

	return nil
}

func (s *service) OnCheckoutStarted(c context.Context, topic string, event storeevents.CheckoutStarted) error {
	return nil
}

// OnCheckoutCompleted creates the receipt for checkouts that settle without
// a synchronous verify call, e.g. the stripe flow or a late webhook.
func (s *service) OnCheckoutCompleted(c context.Context, topic string, event storeevents.CheckoutCompleted) error {
	if event.Status != storeevents.CheckoutStatusSuccess {
		return nil
	}
	if event.PaymentID == "" {
		s.logger.Log(c, event.CheckoutUID, mylog.SeverityWarn, "Completed checkout %s without payment-id", event.CheckoutUID)
		return nil
	}

	_, err := s.CreatePurchase(c, storeapi.PurchaseRequest{
		AssetUID:      event.AssetUID,
		BuyerEmail:    event.BuyerEmail,
		PaymentID:     event.PaymentID,
		AmountInPaise: event.AmountInPaise,
		Currency:      event.Currency,
	})

	return err
}

func (s *service) OnPurchaseCreated(c context.Context, topic string, event storeevents.PurchaseCreated) error {
	return nil
}
