package threedsecure

import "github.com/kevin07696/payment-sdk/internal/domain"

type billingAddress struct {
	GivenName   string `json:"givenName,omitempty"`
	Line1       string `json:"line1,omitempty"`
	Line2       string `json:"line2,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

func newBillingAddress(a *domain.PostalAddress) *billingAddress {
	if a == nil {
		return nil
	}
	return &billingAddress{
		GivenName:   a.RecipientName,
		Line1:       a.StreetAddress,
		Line2:       a.ExtendedAddress,
		City:        a.Locality,
		State:       a.Region,
		PostalCode:  a.PostalCode,
		CountryCode: a.CountryCodeAlpha2,
	}
}

type lookupCustomer struct {
	Email             string          `json:"email,omitempty"`
	MobilePhoneNumber string          `json:"mobilePhoneNumber,omitempty"`
	BillingAddress    *billingAddress `json:"billingAddress,omitempty"`
}

type lookupBody struct {
	Amount                       string         `json:"amount"`
	Customer                     lookupCustomer `json:"customer"`
	RequestedThreeDSecureVersion string         `json:"requestedThreeDSecureVersion"`
	ChallengeRequested           bool           `json:"challengeRequested"`
	MerchantAccountID            string         `json:"merchantAccountId,omitempty"`
}

type authenticateBody struct {
	AuthResponse string `json:"auth_response"`
}

type cardDetails struct {
	CardType        string `json:"cardType"`
	LastTwo         string `json:"lastTwo"`
	LastFour        string `json:"lastFour"`
	BIN             string `json:"bin"`
	ExpirationMonth string `json:"expirationMonth"`
	ExpirationYear  string `json:"expirationYear"`
	CardholderName  string `json:"cardholderName"`
}

type paymentMethod struct {
	Type        string      `json:"type"`
	Nonce       string      `json:"nonce"`
	Description string      `json:"description"`
	Default     bool        `json:"default"`
	Details     cardDetails `json:"details"`
}

type lookup struct {
	// AcsURL is null for frictionless lookups
	AcsURL              *string `json:"acsUrl"`
	MD                  string  `json:"md"`
	TermURL             string  `json:"termUrl"`
	PaReq               string  `json:"pareq"`
	ThreeDSecureVersion string  `json:"threeDSecureVersion"`
}

type responseError struct {
	Attribute string `json:"attribute"`
	Message   string `json:"message"`
}

// verificationResponse is the shape of both lookup and authenticate responses
type verificationResponse struct {
	PaymentMethod    *paymentMethod          `json:"paymentMethod"`
	Lookup           *lookup                 `json:"lookup"`
	ThreeDSecureInfo domain.ThreeDSecureInfo `json:"threeDSecureInfo"`
	Errors           []responseError         `json:"errors"`
	Success          *bool                   `json:"success"`
}
