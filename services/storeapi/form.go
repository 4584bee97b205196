package storeapi

import (
	"fmt"
	"net/http"
	"net/url"

	formcodec "github.com/go-playground/form/v4"

	"github.com/rajuvisuals/storefront/lib/myerrors"
)

// CheckoutForm is what the storefront posts to start a checkout attempt
type CheckoutForm struct {
	AssetUID   string `form:"assetUid"`
	BuyerEmail string `form:"buyerEmail"`
	ReturnURL  string `form:"returnUrl"`
}

func NewCheckoutFormFromRequest(r *http.Request) (CheckoutForm, error) {
	err := r.ParseForm()
	if err != nil {
		return CheckoutForm{}, myerrors.NewInvalidInputError(err)
	}

	return NewCheckoutFormFromValues(r.Form)
}

func NewCheckoutFormFromValues(values url.Values) (CheckoutForm, error) {
	form := CheckoutForm{}
	err := formcodec.NewDecoder().Decode(&form, values)
	if err != nil {
		return form, fmt.Errorf("error decoding form: %s", err)
	}

	return form, nil
}

func (f CheckoutForm) ToValues() (url.Values, error) {
	values, err := formcodec.NewEncoder().Encode(f)
	if err != nil {
		return nil, fmt.Errorf("error encoding form: %s", err)
	}

	return values, nil
}
