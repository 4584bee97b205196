package storeevents

import (
	"encoding/json"

	"github.com/rajuvisuals/storefront/lib/myevents"
	"github.com/rajuvisuals/storefront/lib/mytime"
)

// CreatePubsubMessage wraps an event the way a pubsub push-subscription
// delivers it. Used by tests that poke event endpoints directly.
func CreatePubsubMessage(event myevents.Event) string {
	eventBytes, _ := json.Marshal(event)
	envelope := myevents.EventEnvelope{
		UID:           "123",
		CreatedAt:     mytime.ExampleTime,
		Topic:         TopicName,
		AggregateUID:  event.GetAggregateName(),
		EventTypeName: event.GetEventTypeName(),
		EventPayload:  string(eventBytes),
	}
	envelopeBytes, _ := json.Marshal(envelope)

	req := myevents.PushRequest{
		Message: myevents.PushMessage{
			Data: envelopeBytes,
		},
		Subscription: TopicName,
	}

	reqBytes, _ := json.Marshal(req)

	return string(reqBytes)
}
