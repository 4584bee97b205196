package storeevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rajuvisuals/storefront/lib/myerrors"
	"github.com/rajuvisuals/storefront/lib/myevents"
)

const (
	TopicName             = "store"
	checkoutStartedName   = TopicName + ".checkout.started"
	checkoutCompletedName = TopicName + ".checkout.completed"
	purchaseCreatedName   = TopicName + ".purchase.created"
)

type StoreEventService interface {
	Subscribe(c context.Context) error
	OnCheckoutStarted(c context.Context, topic string, event CheckoutStarted) error
	OnCheckoutCompleted(c context.Context, topic string, event CheckoutCompleted) error
	OnPurchaseCreated(c context.Context, topic string, event PurchaseCreated) error
}

func DispatchEvent(c context.Context, reader io.Reader, service StoreEventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case checkoutStartedName:
		{
			event := CheckoutStarted{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnCheckoutStarted(c, envelope.Topic, event)
		}
	case checkoutCompletedName:
		{
			event := CheckoutCompleted{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnCheckoutCompleted(c, envelope.Topic, event)
		}
	case purchaseCreatedName:
		{
			event := PurchaseCreated{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnPurchaseCreated(c, envelope.Topic, event)
		}
	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("unknown event type %s", envelope.EventTypeName))
	}
}

type CheckoutStatus string

const (
	CheckoutStatusUndefined CheckoutStatus = ""
	CheckoutStatusSuccess   CheckoutStatus = "success"
	CheckoutStatusCancelled CheckoutStatus = "cancelled"
	CheckoutStatusPending   CheckoutStatus = "pending"
	CheckoutStatusFailed    CheckoutStatus = "failed"
)

type CheckoutStarted struct {
	CheckoutUID   string
	ProviderName  string
	AssetUID      string
	BuyerEmail    string
	AmountInPaise int64
	Currency      string
}

func (e CheckoutStarted) GetEventTypeName() string {
	return checkoutStartedName
}

func (e CheckoutStarted) GetAggregateName() string {
	return e.CheckoutUID
}

type CheckoutCompleted struct {
	CheckoutUID   string
	ProviderName  string
	AssetUID      string
	AssetTitle    string
	BuyerEmail    string
	PaymentID     string
	AmountInPaise int64
	Currency      string
	Status        CheckoutStatus
}

func (e CheckoutCompleted) GetEventTypeName() string {
	return checkoutCompletedName
}

func (e CheckoutCompleted) GetAggregateName() string {
	return e.CheckoutUID
}

type PurchaseCreated struct {
	ReceiptUID string
	AssetUID   string
	PaymentID  string
	BuyerEmail string
}

func (e PurchaseCreated) GetEventTypeName() string {
	return purchaseCreatedName
}

func (e PurchaseCreated) GetAggregateName() string {
	return e.ReceiptUID
}
