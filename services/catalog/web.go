package catalog

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rajuvisuals/storefront/lib/mycache"
	"github.com/rajuvisuals/storefront/lib/mycontext"
	"github.com/rajuvisuals/storefront/lib/myhttp"
	"github.com/rajuvisuals/storefront/lib/mylog"
	"github.com/rajuvisuals/storefront/lib/mystore"
	"github.com/rajuvisuals/storefront/services/storeapi"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(assetStore mystore.Store[storeapi.Asset], assetCache mycache.Cache[[]storeapi.Asset]) *webService {
	logger := mylog.New("catalog")

	return &webService{
		logger:  logger,
		service: newService(assetStore, assetCache, logger),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/api/assets", s.listAssetsPage()).Methods("GET")
	router.HandleFunc("/api/assets/{assetUID}", s.getAssetPage()).Methods("GET")

	router.HandleFunc("/assets/{assetUID}/download", s.freeDownloadPage()).Methods("GET")

	return nil
}

func (s *webService) listAssetsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		assets, err := s.service.listAssets(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, assets)
	}
}

func (s *webService) getAssetPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		assetUID := mux.Vars(r)["assetUID"]

		asset, err := s.service.getAsset(c, assetUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, asset)
	}
}

func (s *webService) freeDownloadPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		assetUID := mux.Vars(r)["assetUID"]

		target, err := s.service.resolveFreeDownload(c, assetUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		http.Redirect(w, r, target.URL, http.StatusSeeOther)
	}
}
