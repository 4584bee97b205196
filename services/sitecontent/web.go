package sitecontent

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rajuvisuals/storefront/lib/mycontext"
	"github.com/rajuvisuals/storefront/lib/myerrors"
	"github.com/rajuvisuals/storefront/lib/myhttp"
	"github.com/rajuvisuals/storefront/lib/mylog"
	"github.com/rajuvisuals/storefront/lib/mystore"
)

type webService struct {
	logger       mylog.Logger
	contentStore mystore.Store[SiteContent]
	defaults     SiteContent
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(contentStore mystore.Store[SiteContent], defaults SiteContent) *webService {
	return &webService{
		logger:       mylog.New("sitecontent"),
		contentStore: contentStore,
		defaults:     defaults,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/api/content", s.getContentPage()).Methods("GET")

	return nil
}

// getContentPage serves the stored site-copy, falling back to the built-in
// defaults when nothing was published yet.
func (s *webService) getContentPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		content, found, err := s.contentStore.Get(c, currentContentUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInternalError(err))
			return
		}
		if !found {
			content = s.defaults
		}
		if content.ThemeColor == "" {
			content.ThemeColor = s.defaults.ThemeColor
		}

		errorWriter.Write(c, w, http.StatusOK, content)
	}
}
