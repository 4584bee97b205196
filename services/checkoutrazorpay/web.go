package checkoutrazorpay

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rajuvisuals/storefront/lib/mycontext"
	"github.com/rajuvisuals/storefront/lib/myerrors"
	"github.com/rajuvisuals/storefront/lib/myhttp"
	"github.com/rajuvisuals/storefront/lib/mylog"
	"github.com/rajuvisuals/storefront/lib/mypublisher"
	"github.com/rajuvisuals/storefront/lib/mystore"
	"github.com/rajuvisuals/storefront/lib/mytime"
	"github.com/rajuvisuals/storefront/lib/myuuid"
	"github.com/rajuvisuals/storefront/lib/myvault"
	"github.com/rajuvisuals/storefront/services/storeapi"
)

//go:embed templates
var templateFolder embed.FS
var (
	checkoutPageTemplate *template.Template
)

func init() {
	checkoutPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/checkout.html"))
}

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(fallbackCreds myvault.Credentials, payer Payer, nower mytime.Nower, uuider myuuid.UUIDer, vault myvault.VaultReader, checkoutStore mystore.Store[storeapi.CheckoutContext], assetStore mystore.Store[storeapi.Asset], purchaseCreator storeapi.PurchaseCreator, publisher mypublisher.Publisher) *webService {
	logger := mylog.New("checkoutrazorpay")

	return &webService{
		logger:  logger,
		service: newService(fallbackCreds, payer, logger, nower, uuider, vault, checkoutStore, assetStore, purchaseCreator, publisher),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	// Api used by the single-page frontend
	router.HandleFunc("/api/checkout/order", s.createOrderPage()).Methods("POST")
	router.HandleFunc("/api/checkout/verify", s.verifyPaymentPage()).Methods("POST")

	// Server-rendered fallback for browsers without the frontend bundle
	router.HandleFunc("/checkout/{assetUID}", s.hostedCheckoutPage()).Methods("GET", "POST")

	// Asynchronous confirmation from the payment-platform
	router.HandleFunc("/checkout/webhook/razorpay", s.webhookNotification()).Methods("POST")

	err := s.service.CreateTopics(c)
	if err != nil {
		return err
	}

	return nil
}

func (s *webService) createOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := CreateOrderRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}

		resp, err := s.service.createOrder(c, req)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) verifyPaymentPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := VerifyPaymentRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}

		resp, err := s.service.verifyPayment(c, req)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) hostedCheckoutPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		assetUID := mux.Vars(r)["assetUID"]

		buyerEmail := ""
		if r.Method == http.MethodPost {
			form, err := storeapi.NewCheckoutFormFromRequest(r)
			if err != nil {
				errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing form: %s", err)))
				return
			}
			buyerEmail = form.BuyerEmail
		}

		asset, err := s.service.assetForCheckout(c, assetUID)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		creds := s.service.credentials(c)

		err = checkoutPageTemplate.Execute(w, checkoutPageData{
			Asset:      asset,
			BuyerEmail: buyerEmail,
			KeyID:      creds.KeyID,
			BaseURL:    myhttp.HostnameWithScheme(r),
		})
		if err != nil {
			errorWriter.WriteError(c, w, 3, myerrors.NewInternalError(fmt.Errorf("error rendering checkout page: %s", err)))
			return
		}
	}
}

type checkoutPageData struct {
	Asset      storeapi.Asset
	BuyerEmail string
	KeyID      string
	BaseURL    string
}

func (s *webService) webhookNotification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		// The signature covers the raw body: read it before any decoding
		body, err := io.ReadAll(r.Body)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error reading webhook body: %s", err)))
			return
		}

		err = s.service.webhookNotification(c, r.Header.Get(webhookSignatureHeader), body)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{})
	}
}
