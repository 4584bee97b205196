package checkoutrazorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
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
		ProviderName:  "razorpay",
		KeyID:         "rzp_test_key",
		KeySecret:     "my_key_secret",
		WebhookSecret: "my_webhook_secret",
	}

	premiumAsset = storeapi.Asset{
		UID:           "premium-pack",
		Title:         "Premium Transition Pack",
		Category:      storeapi.CategoryPremium,
		PriceLabel:    "₹499",
		AmountInPaise: 49900,
		Currency:      "INR",
		DownloadURL:   "https://example.com/packs/transitions.zip",
	}
	freeAsset = storeapi.Asset{
		UID:      "free-lut",
		Title:    "Cinematic LUT (free)",
		Category: storeapi.CategoryFree,
	}
)

func TestCheckoutService(t *testing.T) {

	t.Run("Create order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, checkoutStore, assetStore, payer, nower, uuider, _, publisher := setup(t, ctrl)

		// given
		_ = assetStore.Put(c, premiumAsset.UID, premiumAsset)
		uuider.EXPECT().Create().Return("123")
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		payer.EXPECT().UseCredentials("rzp_test_key", "my_key_secret")
		payer.EXPECT().CreateOrder(gomock.Any(), OrderRequest{
			AmountInPaise: 49900,
			Currency:      "INR",
			ReceiptRef:    "123",
			Notes: map[string]interface{}{
				"assetUid":   "premium-pack",
				"buyerEmail": "buyer@example.com",
			},
		}).Return(OrderResponse{OrderID: "order_abc", AmountInPaise: 49900, Currency: "INR"}, nil)
		publisher.EXPECT().Publish(gomock.Any(), storeevents.TopicName, storeevents.CheckoutStarted{
			CheckoutUID:   "123",
			ProviderName:  "razorpay",
			AssetUID:      "premium-pack",
			BuyerEmail:    "buyer@example.com",
			AmountInPaise: 49900,
			Currency:      "INR",
		}).Return(nil)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/checkout/order", strings.NewReader(`{"assetUid":"premium-pack","buyerEmail":"buyer@example.com"}`))
		request.Header.Set("Content-Type", "application/json")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		resp := CreateOrderResponse{}
		err := json.Unmarshal(response.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.Equal(t, "order_abc", resp.OrderID)
		assert.Equal(t, int64(49900), resp.AmountInPaise)
		assert.Equal(t, "rzp_test_key", resp.KeyID)

		checkout, exists, _ := checkoutStore.Get(c, "order_abc")
		assert.True(t, exists)
		assert.Equal(t, "123", checkout.CheckoutUID)
		assert.Equal(t, string(storeevents.CheckoutStatusPending), checkout.Status)
		assert.Equal(t, int64(49900), checkout.AmountInPaise)
	})

	t.Run("Create order for free asset is refused", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, _, assetStore, _, _, uuider, _, _ := setup(t, ctrl)

		// given
		_ = assetStore.Put(c, freeAsset.UID, freeAsset)
		uuider.EXPECT().Create().Return("123").AnyTimes()

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/checkout/order", strings.NewReader(`{"assetUid":"free-lut","buyerEmail":"buyer@example.com"}`))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusBadRequest, response.Code)
	})

	t.Run("Create order for unknown asset", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _, _, _ := setup(t, ctrl)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/checkout/order", strings.NewReader(`{"assetUid":"nope","buyerEmail":"buyer@example.com"}`))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusNotFound, response.Code)
	})

	t.Run("Verify payment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, checkoutStore, _, _, nower, _, creator, publisher := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		_ = checkoutStore.Put(c, "order_abc", storeapi.CheckoutContext{
			CheckoutUID:     "123",
			PaymentProvider: "razorpay",
			AssetUID:        "premium-pack",
			AssetTitle:      "Premium Transition Pack",
			BuyerEmail:      "buyer@example.com",
			AmountInPaise:   49900,
			Currency:        "INR",
			ProviderOrderID: "order_abc",
			Status:          string(storeevents.CheckoutStatusPending),
		})
		publisher.EXPECT().Publish(gomock.Any(), storeevents.TopicName, storeevents.CheckoutCompleted{
			CheckoutUID:   "123",
			ProviderName:  "razorpay",
			AssetUID:      "premium-pack",
			AssetTitle:    "Premium Transition Pack",
			BuyerEmail:    "buyer@example.com",
			PaymentID:     "pay_456",
			AmountInPaise: 49900,
			Currency:      "INR",
			Status:        storeevents.CheckoutStatusSuccess,
		}).Return(nil)
		creator.EXPECT().CreatePurchase(gomock.Any(), storeapi.PurchaseRequest{
			AssetUID:      "premium-pack",
			BuyerEmail:    "buyer@example.com",
			PaymentID:     "pay_456",
			AmountInPaise: 49900,
			Currency:      "INR",
		}).Return(storeapi.Purchase{ReceiptUID: "RCP-65eaf00d-AB12CD"}, nil)

		signature := paymentSignature("my_key_secret", "order_abc", "pay_456")

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/checkout/verify", strings.NewReader(`{"razorpay_order_id":"order_abc","razorpay_payment_id":"pay_456","razorpay_signature":"`+signature+`"}`))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		resp := VerifyPaymentResponse{}
		err := json.Unmarshal(response.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.True(t, resp.Verified)
		assert.Equal(t, "RCP-65eaf00d-AB12CD", resp.ReceiptUID)

		checkout, exists, _ := checkoutStore.Get(c, "order_abc")
		assert.True(t, exists)
		assert.Equal(t, string(storeevents.CheckoutStatusSuccess), checkout.Status)
	})

	t.Run("Verify payment with forged signature", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, checkoutStore, _, _, nower, _, _, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		_ = checkoutStore.Put(c, "order_abc", storeapi.CheckoutContext{
			CheckoutUID:     "123",
			ProviderOrderID: "order_abc",
			Status:          string(storeevents.CheckoutStatusPending),
		})

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/checkout/verify", strings.NewReader(`{"razorpay_order_id":"order_abc","razorpay_payment_id":"pay_456","razorpay_signature":"forged"}`))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusForbidden, response.Code)

		checkout, exists, _ := checkoutStore.Get(c, "order_abc")
		assert.True(t, exists)
		assert.Equal(t, string(storeevents.CheckoutStatusFailed), checkout.Status)
	})

	t.Run("Verify payment with missing fields", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, nower, _, _, _ := setup(t, ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/checkout/verify", strings.NewReader(`{"razorpay_order_id":"order_abc"}`))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusBadRequest, response.Code)
	})

	t.Run("Handle webhook", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, checkoutStore, _, _, nower, _, creator, publisher := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		_ = checkoutStore.Put(c, "order_abc", storeapi.CheckoutContext{
			CheckoutUID:     "123",
			PaymentProvider: "razorpay",
			AssetUID:        "premium-pack",
			AssetTitle:      "Premium Transition Pack",
			BuyerEmail:      "buyer@example.com",
			AmountInPaise:   49900,
			Currency:        "INR",
			ProviderOrderID: "order_abc",
			Status:          string(storeevents.CheckoutStatusPending),
		})
		publisher.EXPECT().Publish(gomock.Any(), storeevents.TopicName, gomock.Any()).Return(nil)
		creator.EXPECT().CreatePurchase(gomock.Any(), storeapi.PurchaseRequest{
			AssetUID:      "premium-pack",
			BuyerEmail:    "buyer@example.com",
			PaymentID:     "pay_456",
			AmountInPaise: 49900,
			Currency:      "INR",
		}).Return(storeapi.Purchase{ReceiptUID: "RCP-65eaf00d-AB12CD"}, nil)

		body := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_456","order_id":"order_abc","status":"captured","amount":49900,"currency":"INR","email":"buyer@example.com"}}}}`

		// when
		request, _ := http.NewRequest(http.MethodPost, "/checkout/webhook/razorpay", strings.NewReader(body))
		request.Header.Set(webhookSignatureHeader, webhookSignature("my_webhook_secret", []byte(body)))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)

		checkout, exists, _ := checkoutStore.Get(c, "order_abc")
		assert.True(t, exists)
		assert.True(t, checkout.WebhookSuccess)
		assert.Equal(t, "captured", checkout.WebhookStatus)
	})

	t.Run("Handle webhook with forged signature", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, nower, _, _, _ := setup(t, ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		body := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_456","order_id":"order_abc"}}}}`

		// when
		request, _ := http.NewRequest(http.MethodPost, "/checkout/webhook/razorpay", strings.NewReader(body))
		request.Header.Set(webhookSignatureHeader, "forged")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusForbidden, response.Code)
	})

	t.Run("Handle webhook with uninteresting event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, nower, _, _, _ := setup(t, ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

		body := `{"event":"payment.authorized","payload":{"payment":{"entity":{"id":"pay_456","order_id":"order_abc"}}}}`

		// when
		request, _ := http.NewRequest(http.MethodPost, "/checkout/webhook/razorpay", strings.NewReader(body))
		request.Header.Set(webhookSignatureHeader, webhookSignature("my_webhook_secret", []byte(body)))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
	})

	t.Run("Hosted checkout page", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, _, assetStore, _, _, _, _, _ := setup(t, ctrl)

		// given
		_ = assetStore.Put(c, premiumAsset.UID, premiumAsset)

		// when
		request, _ := http.NewRequest(http.MethodGet, "/checkout/premium-pack", nil)
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		assert.Contains(t, response.Body.String(), "Premium Transition Pack")
		assert.Contains(t, response.Body.String(), "rzp_test_key")
	})
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[storeapi.CheckoutContext], mystore.Store[storeapi.Asset], *MockPayer, *mytime.MockNower, *myuuid.MockUUIDer, *storeapi.MockPurchaseCreator, *mypublisher.MockPublisher) {
	c := context.TODO()
	checkoutStore, _, _ := mystore.NewInMemoryStore[storeapi.CheckoutContext](c)
	assetStore, _, _ := mystore.NewInMemoryStore[storeapi.Asset](c)
	vault := myvault.NewMockVaultReader(ctrl)
	payer := NewMockPayer(ctrl)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	creator := storeapi.NewMockPurchaseCreator(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)

	// No credentials in the vault: the configured key-pair is used
	vault.EXPECT().Get(gomock.Any(), myvault.UIDFor("razorpay")).Return(myvault.Credentials{}, false, nil).AnyTimes()

	sut := NewWebService(fallbackCreds, payer, nower, uuider, vault, checkoutStore, assetStore, creator, publisher)
	router := mux.NewRouter()

	// This one is called by the following call to RegisterEndpoints
	publisher.EXPECT().CreateTopic(gomock.Any(), storeevents.TopicName).Return(nil)

	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, checkoutStore, assetStore, payer, nower, uuider, creator, publisher
}
