package receipt

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rajuvisuals/storefront/lib/mycontext"
	"github.com/rajuvisuals/storefront/lib/myerrors"
	"github.com/rajuvisuals/storefront/lib/myhttp"
	"github.com/rajuvisuals/storefront/lib/mylog"
	"github.com/rajuvisuals/storefront/lib/mypublisher"
	"github.com/rajuvisuals/storefront/lib/mypubsub"
	"github.com/rajuvisuals/storefront/lib/mystore"
	"github.com/rajuvisuals/storefront/lib/mytime"
	"github.com/rajuvisuals/storefront/lib/myuuid"
	"github.com/rajuvisuals/storefront/services/storeapi"
	"github.com/rajuvisuals/storefront/services/storeevents"
)

//go:embed templates
var templateFolder embed.FS
var (
	receiptPageTemplate *template.Template
)

func init() {
	receiptPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/receipt.html"))
}

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(purchaseStore mystore.Store[storeapi.Purchase], paymentRefStore mystore.Store[PaymentRef], assetStore mystore.Store[storeapi.Asset], nower mytime.Nower, uuider myuuid.UUIDer, subscriber mypubsub.PubSub, publisher mypublisher.Publisher) *webService {
	logger := mylog.New("receipt")

	return &webService{
		logger:  logger,
		service: newService(purchaseStore, paymentRefStore, assetStore, logger, nower, uuider, subscriber, publisher),
	}
}

// PurchaseCreator exposes the service so payment-provider services can
// create receipts synchronously.
func (s *webService) PurchaseCreator() storeapi.PurchaseCreator {
	return s.service
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	// Api used by the single-page frontend
	router.HandleFunc("/api/receipt/verify", s.verifyReceiptPage()).Methods("POST")
	router.HandleFunc("/api/receipt/by-payment/{paymentID}", s.getByPaymentPage()).Methods("GET")

	// Server-rendered receipt lookup
	router.HandleFunc("/receipt/{receiptUID}", s.receiptPage()).Methods("GET", "POST")

	// Events that are pushed to this service
	router.HandleFunc("/api/receipt/event", s.eventNotification()).Methods("POST")

	err := s.service.Subscribe(c)
	if err != nil {
		return err
	}

	return nil
}

func (s *webService) verifyReceiptPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := VerifyReceiptRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}

		purchase, err := s.service.verifyReceipt(c, req.ReceiptID, req.Email)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, toReceiptResponse(purchase))
	}
}

func (s *webService) getByPaymentPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		paymentID := mux.Vars(r)["paymentID"]

		purchase, err := s.service.getByPayment(c, paymentID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, toReceiptResponse(purchase))
	}
}

type receiptPageData struct {
	ReceiptUID string
	Receipt    *ReceiptResponse
	Error      string
}

func (s *webService) receiptPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		receiptUID := mux.Vars(r)["receiptUID"]

		data := receiptPageData{
			ReceiptUID: receiptUID,
		}

		if r.Method == http.MethodPost {
			err := r.ParseForm()
			if err != nil {
				errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing form: %s", err)))
				return
			}

			purchase, err := s.service.verifyReceipt(c, receiptUID, r.Form.Get("email"))
			if err != nil {
				data.Error = "No matching receipt was found for this receipt-id and email."
			} else {
				resp := toReceiptResponse(purchase)
				data.Receipt = &resp
			}
		}

		err := receiptPageTemplate.Execute(w, data)
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInternalError(fmt.Errorf("error rendering receipt page: %s", err)))
			return
		}
	}
}

func (s *webService) eventNotification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := storeevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{})
	}
}
