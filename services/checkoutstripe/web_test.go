package checkoutstripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v74"
	"go.uber.org/mock/gomock"

	"github.com/rajuvisuals/storefront/lib/mystore"
	"github.com/rajuvisuals/storefront/lib/mypublisher"
	"github.com/rajuvisuals/storefront/lib/mytime"
	"github.com/rajuvisuals/storefront/lib/myuuid"
	"github.com/rajuvisuals/storefront/lib/myvault"
	"github.com/rajuvisuals/storefront/services/storeapi"
	"github.com/rajuvisuals/storefront/services/storeevents"
)

var (
	fallbackCreds = myvault.Credentials{
		ProviderName: "stripe",
		KeySecret:    "sk_test_key",
	}

	premiumAsset = storeapi.Asset{
		UID:           "premium-pack",
		Title:         "Premium Transition Pack",
		Description:   "60 handcrafted transitions",
		Category:      storeapi.CategoryPremium,
		PriceLabel:    "₹499",
		AmountInPaise: 49900,
		Currency:      "INR",
	}
)

func TestCheckoutService(t *testing.T) {

	t.Run("Start checkout", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, checkoutStore, assetStore, payer, nower, uuider, publisher := setup(t, ctrl)

		// given
		_ = assetStore.Put(c, premiumAsset.UID, premiumAsset)
		uuider.EXPECT().Create().Return("123")
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		payer.EXPECT().UseApiKey("sk_test_key")
		payer.EXPECT().CreateCheckoutSession(gomock.Any(), gomock.Any()).Return(stripe.CheckoutSession{
			ID:  "cs_456",
			URL: "https://checkout.stripe.com/pay/cs_456",
		}, nil)
		publisher.EXPECT().Publish(gomock.Any(), storeevents.TopicName, storeevents.CheckoutStarted{
			CheckoutUID:   "123",
			ProviderName:  "stripe",
			AssetUID:      "premium-pack",
			BuyerEmail:    "buyer@example.com",
			AmountInPaise: 49900,
			Currency:      "INR",
		}).Return(nil)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/stripe/checkout/premium-pack", strings.NewReader(`buyerEmail=buyer@example.com&returnUrl=http://a.b/c`))
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusSeeOther, response.Code)
		assert.Equal(t, "https://checkout.stripe.com/pay/cs_456", response.Header().Get("Location"))

		checkout, exists, _ := checkoutStore.Get(c, "123")
		assert.True(t, exists)
		assert.Equal(t, "cs_456", checkout.ProviderOrderID)
		assert.Equal(t, string(storeevents.CheckoutStatusPending), checkout.Status)
	})

	t.Run("Handle checkout status redirect", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, checkoutStore, _, _, nower, _, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		_ = checkoutStore.Put(c, "123", storeapi.CheckoutContext{
			CheckoutUID:     "123",
			PaymentProvider: "stripe",
			AssetUID:        "premium-pack",
			ReturnURL:       "http://localhost:8080/assets/premium-pack",
			Status:          string(storeevents.CheckoutStatusPending),
			CreatedAt:       mytime.ExampleTime.Add(-1 * time.Hour),
		})

		// when
		request, _ := http.NewRequest(http.MethodGet, "/stripe/checkout/123/status/success", nil)
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusSeeOther, response.Code)
		assert.Equal(t, "http://localhost:8080/assets/premium-pack?status=success", response.Header().Get("Location"))

		checkout, exists, _ := checkoutStore.Get(c, "123")
		assert.True(t, exists)
		assert.Equal(t, "success", checkout.Status)
	})

	t.Run("Handle checkout status webhook", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, checkoutStore, _, _, nower, _, publisher := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		_ = checkoutStore.Put(c, "123", storeapi.CheckoutContext{
			CheckoutUID:     "123",
			PaymentProvider: "stripe",
			AssetUID:        "premium-pack",
			AssetTitle:      "Premium Transition Pack",
			BuyerEmail:      "buyer@example.com",
			AmountInPaise:   49900,
			Currency:        "INR",
			Status:          string(storeevents.CheckoutStatusPending),
		})
		publisher.EXPECT().Publish(gomock.Any(), storeevents.TopicName, storeevents.CheckoutCompleted{
			CheckoutUID:   "123",
			ProviderName:  "stripe",
			AssetUID:      "premium-pack",
			AssetTitle:    "Premium Transition Pack",
			BuyerEmail:    "buyer@example.com",
			PaymentID:     "pi_789",
			AmountInPaise: 49900,
			Currency:      "INR",
			Status:        storeevents.CheckoutStatusSuccess,
		}).Return(nil)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/stripe/checkout/webhook/event", strings.NewReader(`{
			"id": "evt_2Zj5zzFU3a9abcZ1aYYYaaZ1",
			"type": "checkout.session.completed",
			"data": {
				"object": {
					"payment_intent": "pi_789",
					"metadata": {
						"checkoutUID": "123"
					}
				}
			}
		}`))
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)

		checkout, exists, _ := checkoutStore.Get(c, "123")
		assert.True(t, exists)
		assert.True(t, checkout.WebhookSuccess)
		assert.Equal(t, "checkout.session.completed", checkout.WebhookStatus)
	})

	t.Run("Webhook with uninteresting event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, nower, _, _ := setup(t, ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		// when
		request, _ := http.NewRequest(http.MethodPost, "/stripe/checkout/webhook/event", strings.NewReader(`{
			"id": "evt_1",
			"type": "payment_intent.created",
			"data": { "object": {} }
		}`))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
	})
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[storeapi.CheckoutContext], mystore.Store[storeapi.Asset], *MockPayer, *mytime.MockNower, *myuuid.MockUUIDer, *mypublisher.MockPublisher) {
	c := context.TODO()
	checkoutStore, _, _ := mystore.NewInMemoryStore[storeapi.CheckoutContext](c)
	assetStore, _, _ := mystore.NewInMemoryStore[storeapi.Asset](c)
	vault := myvault.NewMockVaultReader(ctrl)
	payer := NewMockPayer(ctrl)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)

	// No credentials in the vault: the configured api-key is used
	vault.EXPECT().Get(gomock.Any(), myvault.UIDFor("stripe")).Return(myvault.Credentials{}, false, nil).AnyTimes()

	sut := NewWebService(fallbackCreds, payer, nower, uuider, vault, checkoutStore, assetStore, publisher)
	router := mux.NewRouter()

	// This one is called by the following call to RegisterEndpoints
	publisher.EXPECT().CreateTopic(gomock.Any(), storeevents.TopicName).Return(nil)

	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, checkoutStore, assetStore, payer, nower, uuider, publisher
}
