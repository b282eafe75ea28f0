package paypal

import (
	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/internal/services/ports"
	"github.com/kevin07696/payment-sdk/internal/services/redirect"
)

type experienceProfile struct {
	NoShipping      bool   `json:"no_shipping"`
	AddressOverride bool   `json:"address_override"`
	LandingPageType string `json:"landing_page_type,omitempty"`
	BrandName       string `json:"brand_name,omitempty"`
	LocaleCode      string `json:"locale_code,omitempty"`
}

type lineItem struct {
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	UnitAmount  string `json:"unit_amount"`
	Description string `json:"description,omitempty"`
	ProductCode string `json:"product_code,omitempty"`
}

type shippingAddress struct {
	RecipientName string `json:"recipient_name,omitempty"`
	Line1         string `json:"line1,omitempty"`
	Line2         string `json:"line2,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	CountryCode   string `json:"country_code,omitempty"`
}

// createBody is shared by create_payment_resource and setup_billing_agreement
type createBody struct {
	ReturnURL         string            `json:"return_url"`
	CancelURL         string            `json:"cancel_url"`
	OfferPayPalCredit bool              `json:"offer_paypal_credit"`
	ExperienceProfile experienceProfile `json:"experience_profile"`
	MerchantAccountID string            `json:"merchant_account_id,omitempty"`
	CorrelationID     string            `json:"correlation_id"`
	LineItems         []lineItem        `json:"line_items,omitempty"`
	ShippingAddress   *shippingAddress  `json:"shipping_address,omitempty"`

	// Checkout only
	Amount          string `json:"amount,omitempty"`
	CurrencyISOCode string `json:"currency_iso_code,omitempty"`
	Intent          string `json:"intent,omitempty"`

	// Vault only
	Description string `json:"description,omitempty"`
}

func newCreateBody(req *ports.PayPalRequest, cfg *domain.Configuration, urls redirect.ReturnURLs, correlationID string) *createBody {
	brand := req.DisplayName
	if brand == "" {
		brand = cfg.PayPal.DisplayName
	}

	body := &createBody{
		ReturnURL: urls.Success,
		CancelURL: urls.Cancel,
		ExperienceProfile: experienceProfile{
			NoShipping:      !req.ShippingRequired,
			AddressOverride: req.ShippingOverride != nil,
			LandingPageType: req.LandingPageType,
			BrandName:       brand,
			LocaleCode:      req.LocaleCode,
		},
		MerchantAccountID: req.MerchantAccountID,
		CorrelationID:     correlationID,
	}

	for _, item := range req.LineItems {
		body.LineItems = append(body.LineItems, lineItem{
			Kind:        item.Kind,
			Name:        item.Name,
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount.StringFixed(2),
			Description: item.Description,
			ProductCode: item.ProductCode,
		})
	}

	if a := req.ShippingOverride; a != nil {
		body.ShippingAddress = &shippingAddress{
			RecipientName: a.RecipientName,
			Line1:         a.StreetAddress,
			Line2:         a.ExtendedAddress,
			City:          a.Locality,
			State:         a.Region,
			PostalCode:    a.PostalCode,
			CountryCode:   a.CountryCodeAlpha2,
		}
	}
	return body
}

type paymentResourceResponse struct {
	PaymentResource struct {
		RedirectURL  string `json:"redirectUrl"`
		PaymentToken string `json:"paymentToken"`
	} `json:"paymentResource"`
}

type agreementSetupResponse struct {
	AgreementSetup struct {
		ApprovalURL string `json:"approvalUrl"`
		TokenID     string `json:"tokenId"`
	} `json:"agreementSetup"`
}

type tokenizeAccount struct {
	redirect.WebResponse
	CorrelationID     string            `json:"correlation_id,omitempty"`
	Intent            string            `json:"intent,omitempty"`
	MerchantAccountID string            `json:"merchant_account_id,omitempty"`
	Client            map[string]string `json:"client"`
	Options           struct {
		Validate bool `json:"validate"`
	} `json:"options"`
}

type tokenizeBody struct {
	PayPalAccount tokenizeAccount `json:"paypal_account"`
}

type payerAddress struct {
	RecipientName string `json:"recipientName"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postalCode"`
	CountryCode   string `json:"countryCode"`
}

func (a payerAddress) toPostal() domain.PostalAddress {
	return domain.PostalAddress{
		RecipientName:     a.RecipientName,
		StreetAddress:     a.Line1,
		ExtendedAddress:   a.Line2,
		Locality:          a.City,
		Region:            a.State,
		PostalCode:        a.PostalCode,
		CountryCodeAlpha2: a.CountryCode,
	}
}

type accountResponse struct {
	PayPalAccounts []struct {
		Type        string `json:"type"`
		Nonce       string `json:"nonce"`
		Description string `json:"description"`
		Default     bool   `json:"default"`
		Details     struct {
			Email         string `json:"email"`
			CorrelationID string `json:"correlationId"`
			PayerInfo     struct {
				PayerID         string       `json:"payerId"`
				FirstName       string       `json:"firstName"`
				LastName        string       `json:"lastName"`
				Phone           string       `json:"phone"`
				BillingAddress  payerAddress `json:"billingAddress"`
				ShippingAddress payerAddress `json:"shippingAddress"`
			} `json:"payerInfo"`
		} `json:"details"`
	} `json:"paypalAccounts"`
}
