package checkoutrazorpay

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/rajuvisuals/storefront/lib/myerrors"
)

type OrderRequest struct {
	AmountInPaise int64
	Currency      string
	ReceiptRef    string
	Notes         map[string]interface{}
}

type OrderResponse struct {
	OrderID       string
	AmountInPaise int64
	Currency      string
}

//go:generate mockgen -source=payer.go -package checkoutrazorpay -destination payer_mock.go Payer
type Payer interface {
	UseCredentials(keyID string, keySecret string)
	CreateOrder(c context.Context, req OrderRequest) (OrderResponse, error)
}

type razorpayPayer struct {
	client *razorpay.Client
}

func NewPayer() Payer {
	return &razorpayPayer{}
}

func (p *razorpayPayer) UseCredentials(keyID string, keySecret string) {
	p.client = razorpay.NewClient(keyID, keySecret)
}

func (p *razorpayPayer) CreateOrder(c context.Context, req OrderRequest) (OrderResponse, error) {
	if p.client == nil {
		return OrderResponse{}, myerrors.NewInternalError(fmt.Errorf("payer has no credentials"))
	}

	data := map[string]interface{}{
		"amount":   req.AmountInPaise,
		"currency": req.Currency,
		"receipt":  req.ReceiptRef,
	}
	if len(req.Notes) > 0 {
		data["notes"] = req.Notes
	}

	body, err := p.client.Order.Create(data, nil)
	if err != nil {
		return OrderResponse{}, myerrors.NewUnavailableError(fmt.Errorf("error creating order: %s", err))
	}

	orderID, ok := body["id"].(string)
	if !ok || orderID == "" {
		return OrderResponse{}, myerrors.NewInternalError(fmt.Errorf("order-create response has no id"))
	}

	resp := OrderResponse{
		OrderID:       orderID,
		AmountInPaise: req.AmountInPaise,
		Currency:      req.Currency,
	}
	// The api echoes amount and currency, prefer those when present
	if amount, ok := body["amount"].(float64); ok {
		resp.AmountInPaise = int64(amount)
	}
	if currency, ok := body["currency"].(string); ok && currency != "" {
		resp.Currency = currency
	}

	return resp, nil
}
