package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/rajuvisuals/storefront/lib/mycache"
	"github.com/rajuvisuals/storefront/lib/mystore"
	"github.com/rajuvisuals/storefront/lib/mytime"
	"github.com/rajuvisuals/storefront/services/storeapi"
)

var (
	freeAsset = storeapi.Asset{
		UID:         "free-lut",
		Title:       "Cinematic LUT (free)",
		Category:    storeapi.CategoryFree,
		PriceLabel:  "Free",
		Currency:    "INR",
		DownloadURL: "https://drive.google.com/file/d/XYZ123/view?usp=sharing",
		SortOrder:   2,
	}
	premiumAsset = storeapi.Asset{
		UID:           "premium-pack",
		Title:         "Premium Transition Pack",
		Category:      storeapi.CategoryPremium,
		PriceLabel:    "₹499",
		AmountInPaise: 49900,
		Currency:      "INR",
		DownloadURL:   "https://example.com/packs/transitions.zip",
		SortOrder:     1,
	}
)

func TestCatalogService(t *testing.T) {

	t.Run("List assets", func(t *testing.T) {
		c, router, assetStore, _ := setup(t)

		// given
		_ = assetStore.Put(c, freeAsset.UID, freeAsset)
		_ = assetStore.Put(c, premiumAsset.UID, premiumAsset)

		// when
		request, _ := http.NewRequest(http.MethodGet, "/api/assets", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		var assets []storeapi.Asset
		err := json.Unmarshal(response.Body.Bytes(), &assets)
		assert.NoError(t, err)
		assert.Len(t, assets, 2)
		assert.Equal(t, "premium-pack", assets[0].UID) // lowest sort-order first
		assert.Equal(t, "free-lut", assets[1].UID)
	})

	t.Run("List assets is served from cache", func(t *testing.T) {
		c, router, assetStore, _ := setup(t)

		// given
		_ = assetStore.Put(c, freeAsset.UID, freeAsset)

		request, _ := http.NewRequest(http.MethodGet, "/api/assets", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)
		assert.Equal(t, http.StatusOK, response.Code)

		// when: the store changes but the cache has not expired
		_ = assetStore.Put(c, premiumAsset.UID, premiumAsset)
		response = httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then: the stale list is returned
		assert.Equal(t, http.StatusOK, response.Code)
		var assets []storeapi.Asset
		err := json.Unmarshal(response.Body.Bytes(), &assets)
		assert.NoError(t, err)
		assert.Len(t, assets, 1)
	})

	t.Run("Get asset", func(t *testing.T) {
		c, router, assetStore, _ := setup(t)

		// given
		_ = assetStore.Put(c, premiumAsset.UID, premiumAsset)

		// when
		request, _ := http.NewRequest(http.MethodGet, "/api/assets/premium-pack", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		var asset storeapi.Asset
		err := json.Unmarshal(response.Body.Bytes(), &asset)
		assert.NoError(t, err)
		assert.Equal(t, "Premium Transition Pack", asset.Title)
	})

	t.Run("Get asset that does not exist", func(t *testing.T) {
		_, router, _, _ := setup(t)

		// when
		request, _ := http.NewRequest(http.MethodGet, "/api/assets/nope", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusNotFound, response.Code)
	})

	t.Run("Free download redirects to rewritten drive-link", func(t *testing.T) {
		c, router, assetStore, _ := setup(t)

		// given
		_ = assetStore.Put(c, freeAsset.UID, freeAsset)

		// when
		request, _ := http.NewRequest(http.MethodGet, "/assets/free-lut/download", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusSeeOther, response.Code)
		assert.Equal(t, "https://drive.google.com/uc?export=download&id=XYZ123", response.Header().Get("Location"))
	})

	t.Run("Free download of premium asset is refused", func(t *testing.T) {
		c, router, assetStore, _ := setup(t)

		// given
		_ = assetStore.Put(c, premiumAsset.UID, premiumAsset)

		// when
		request, _ := http.NewRequest(http.MethodGet, "/assets/premium-pack/download", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusForbidden, response.Code)
	})

	t.Run("Free download without link", func(t *testing.T) {
		c, router, assetStore, _ := setup(t)

		// given
		linkless := freeAsset
		linkless.UID = "linkless"
		linkless.DownloadURL = ""
		_ = assetStore.Put(c, linkless.UID, linkless)

		// when
		request, _ := http.NewRequest(http.MethodGet, "/assets/linkless/download", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusNotFound, response.Code)
	})
}

func setup(t *testing.T) (context.Context, *mux.Router, mystore.Store[storeapi.Asset], *gomock.Controller) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	router := mux.NewRouter()
	assetStore, _, _ := mystore.NewInMemoryStore[storeapi.Asset](c)

	nower := mytime.NewMockNower(ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
	assetCache := mycache.New[[]storeapi.Asset](5*time.Minute, nower)

	sut := NewWebService(assetStore, assetCache)
	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, assetStore, ctrl
}
