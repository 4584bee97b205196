package receipt

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
	"github.com/rajuvisuals/storefront/lib/mypubsub"
	"github.com/rajuvisuals/storefront/lib/mytime"
	"github.com/rajuvisuals/storefront/lib/myuuid"
	"github.com/rajuvisuals/storefront/services/storeapi"
	"github.com/rajuvisuals/storefront/services/storeevents"
)

var (
	existingPurchase = storeapi.Purchase{
		ReceiptUID:    "RCP-65eaf28d-AB12CD",
		AssetUID:      "premium-pack",
		AssetName:     "Premium Transition Pack",
		Price:         "₹499",
		DownloadLink:  "https://drive.google.com/file/d/XYZ123/view?usp=sharing",
		PurchaseDate:  "8 March 2024",
		BuyerEmail:    "buyer@example.com",
		PaymentID:     "pay_456",
		AmountInPaise: 49900,
		Currency:      "INR",
		Verified:      true,
		CreatedAt:     mytime.ExampleTime,
	}
)

func TestReceiptService(t *testing.T) {

	t.Run("Verify receipt", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, purchaseStore, _, _, _, _, _ := setup(t, ctrl)

		// given
		_ = purchaseStore.Put(c, existingPurchase.ReceiptUID, existingPurchase)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/receipt/verify", strings.NewReader(`{"receiptId":"RCP-65eaf28d-AB12CD","email":"buyer@example.com"}`))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		resp := ReceiptResponse{}
		err := json.Unmarshal(response.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.Equal(t, "RCP-65eaf28d-AB12CD", resp.ReceiptID)
		assert.Equal(t, "Premium Transition Pack", resp.AssetName)
		assert.Equal(t, "₹499", resp.Price)
		assert.Equal(t, "https://drive.google.com/uc?export=download&id=XYZ123", resp.DownloadURL)
		assert.Equal(t, "direct", resp.DownloadKind)
		assert.True(t, resp.Verified)
	})

	t.Run("Verify receipt is case and whitespace tolerant on email", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, purchaseStore, _, _, _, _, _ := setup(t, ctrl)

		// given
		_ = purchaseStore.Put(c, existingPurchase.ReceiptUID, existingPurchase)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/receipt/verify", strings.NewReader(`{"receiptId":"RCP-65eaf28d-AB12CD","email":" Buyer@Example.COM "}`))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
	})

	t.Run("Verify receipt with wrong email", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, purchaseStore, _, _, _, _, _ := setup(t, ctrl)

		// given
		_ = purchaseStore.Put(c, existingPurchase.ReceiptUID, existingPurchase)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/receipt/verify", strings.NewReader(`{"receiptId":"RCP-65eaf28d-AB12CD","email":"other@example.com"}`))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusForbidden, response.Code)
	})

	t.Run("Verify unknown receipt", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _, _ := setup(t, ctrl)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/receipt/verify", strings.NewReader(`{"receiptId":"RCP-00000000-XXXXXX","email":"buyer@example.com"}`))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusNotFound, response.Code)
	})

	t.Run("Verified purchase with missing fields gets defaults", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, purchaseStore, _, _, _, _, _ := setup(t, ctrl)

		// given
		bare := storeapi.Purchase{
			ReceiptUID: "RCP-65eaf28d-BARE00",
			BuyerEmail: "buyer@example.com",
			Verified:   true,
		}
		_ = purchaseStore.Put(c, bare.ReceiptUID, bare)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/receipt/verify", strings.NewReader(`{"receiptId":"RCP-65eaf28d-BARE00","email":"buyer@example.com"}`))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		resp := ReceiptResponse{}
		err := json.Unmarshal(response.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.Equal(t, "Unknown Asset", resp.AssetName)
		assert.Equal(t, "N/A", resp.Price)
		assert.Equal(t, "none", resp.DownloadKind)
	})

	t.Run("Lookup by payment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, purchaseStore, paymentRefStore, _, _, _, _ := setup(t, ctrl)

		// given
		_ = purchaseStore.Put(c, existingPurchase.ReceiptUID, existingPurchase)
		_ = paymentRefStore.Put(c, "pay_456", PaymentRef{
			PaymentID:  "pay_456",
			ReceiptUID: existingPurchase.ReceiptUID,
			CreatedAt:  mytime.ExampleTime,
		})

		// when
		request, _ := http.NewRequest(http.MethodGet, "/api/receipt/by-payment/pay_456", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		resp := ReceiptResponse{}
		err := json.Unmarshal(response.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.Equal(t, "RCP-65eaf28d-AB12CD", resp.ReceiptID)
	})

	t.Run("Lookup by payment that has not settled yet", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _, _ := setup(t, ctrl)

		// when
		request, _ := http.NewRequest(http.MethodGet, "/api/receipt/by-payment/pay_999", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusNotFound, response.Code)
	})

	t.Run("Handle checkout completed event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, purchaseStore, paymentRefStore, assetStore, nower, uuider, publisher := setup(t, ctrl)

		// given
		_ = assetStore.Put(c, "premium-pack", storeapi.Asset{
			UID:         "premium-pack",
			Title:       "Premium Transition Pack",
			Category:    storeapi.CategoryPremium,
			PriceLabel:  "₹499",
			DownloadURL: "https://example.com/packs/transitions.zip",
		})
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("d62d7a21-fc2e-4c3b-a123-456789abcdef")
		publisher.EXPECT().Publish(gomock.Any(), storeevents.TopicName, storeevents.PurchaseCreated{
			ReceiptUID: "RCP-65eaf28d-D62D7A",
			AssetUID:   "premium-pack",
			PaymentID:  "pay_456",
			BuyerEmail: "buyer@example.com",
		}).Return(nil)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/receipt/event", strings.NewReader(storeevents.CreatePubsubMessage(storeevents.CheckoutCompleted{
			CheckoutUID:   "123",
			ProviderName:  "stripe",
			AssetUID:      "premium-pack",
			AssetTitle:    "Premium Transition Pack",
			BuyerEmail:    "buyer@example.com",
			PaymentID:     "pay_456",
			AmountInPaise: 49900,
			Currency:      "INR",
			Status:        storeevents.CheckoutStatusSuccess,
		})))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)

		purchase, exists, _ := purchaseStore.Get(c, "RCP-65eaf28d-D62D7A")
		assert.True(t, exists)
		assert.Equal(t, "Premium Transition Pack", purchase.AssetName)
		assert.Equal(t, "₹499", purchase.Price)
		assert.Equal(t, "8 March 2024", purchase.PurchaseDate)
		assert.True(t, purchase.Verified)

		ref, exists, _ := paymentRefStore.Get(c, "pay_456")
		assert.True(t, exists)
		assert.Equal(t, "RCP-65eaf28d-D62D7A", ref.ReceiptUID)
	})

	t.Run("Purchase creation is idempotent per payment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, purchaseStore, paymentRefStore, _, nower, _, _ := setup(t, ctrl)

		// given: the receipt for this payment already exists
		_ = purchaseStore.Put(c, existingPurchase.ReceiptUID, existingPurchase)
		_ = paymentRefStore.Put(c, "pay_456", PaymentRef{
			PaymentID:  "pay_456",
			ReceiptUID: existingPurchase.ReceiptUID,
			CreatedAt:  mytime.ExampleTime,
		})
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when: the same payment settles again via the webhook
		request, _ := http.NewRequest(http.MethodPost, "/api/receipt/event", strings.NewReader(storeevents.CreatePubsubMessage(storeevents.CheckoutCompleted{
			CheckoutUID:   "123",
			ProviderName:  "razorpay",
			AssetUID:      "premium-pack",
			BuyerEmail:    "buyer@example.com",
			PaymentID:     "pay_456",
			AmountInPaise: 49900,
			Currency:      "INR",
			Status:        storeevents.CheckoutStatusSuccess,
		})))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then: no new receipt, no new event
		assert.Equal(t, http.StatusOK, response.Code)
		purchases, _ := purchaseStore.List(c)
		assert.Len(t, purchases, 1)
	})

	t.Run("Ignore checkout completed event without success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, purchaseStore, _, _, _, _, _ := setup(t, ctrl)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/receipt/event", strings.NewReader(storeevents.CreatePubsubMessage(storeevents.CheckoutCompleted{
			CheckoutUID: "123",
			PaymentID:   "pay_456",
			Status:      storeevents.CheckoutStatusCancelled,
		})))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		purchases, _ := purchaseStore.List(c)
		assert.Len(t, purchases, 0)
	})

	t.Run("Receipt page asks for email and renders details", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, purchaseStore, _, _, _, _, _ := setup(t, ctrl)

		// given
		_ = purchaseStore.Put(c, existingPurchase.ReceiptUID, existingPurchase)

		// when: plain visit shows the email form
		request, _ := http.NewRequest(http.MethodGet, "/receipt/RCP-65eaf28d-AB12CD", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		assert.Contains(t, response.Body.String(), "Email used at purchase")

		// when: posting the matching email shows the receipt
		request, _ = http.NewRequest(http.MethodPost, "/receipt/RCP-65eaf28d-AB12CD", strings.NewReader(`email=buyer@example.com`))
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		response = httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		assert.Contains(t, response.Body.String(), "Premium Transition Pack")
		assert.Contains(t, response.Body.String(), "https://drive.google.com/uc?export=download&amp;id=XYZ123")
	})
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[storeapi.Purchase], mystore.Store[PaymentRef], mystore.Store[storeapi.Asset], *mytime.MockNower, *myuuid.MockUUIDer, *mypublisher.MockPublisher) {
	c := context.TODO()
	purchaseStore, _, _ := mystore.NewInMemoryStore[storeapi.Purchase](c)
	paymentRefStore, _, _ := mystore.NewInMemoryStore[PaymentRef](c)
	assetStore, _, _ := mystore.NewInMemoryStore[storeapi.Asset](c)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	subscriber := mypubsub.NewMockPubSub(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)

	sut := NewWebService(purchaseStore, paymentRefStore, assetStore, nower, uuider, subscriber, publisher)
	router := mux.NewRouter()

	// These are called by the following call to RegisterEndpoints
	subscriber.EXPECT().CreateTopic(gomock.Any(), storeevents.TopicName).Return(nil)
	subscriber.EXPECT().Subscribe(gomock.Any(), storeevents.TopicName, gomock.Any()).Return(nil)

	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, purchaseStore, paymentRefStore, assetStore, nower, uuider, publisher
}
