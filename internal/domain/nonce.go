package domain

// PaymentMethodNonce is a single-use reference to a tokenized payment credential
type PaymentMethodNonce interface {
	Nonce() string
	PaymentType() string
}

// BaseNonce carries the fields every tokenize response shares
type BaseNonce struct {
	Value       string `json:"nonce"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	IsDefault   bool   `json:"default,omitempty"`
}

func (n BaseNonce) Nonce() string       { return n.Value }
func (n BaseNonce) PaymentType() string { return n.Type }

// PostalAddress is the address shape shared by PayPal, SEPA and 3DS payloads
type PostalAddress struct {
	RecipientName     string `json:"recipientName,omitempty"`
	StreetAddress     string `json:"streetAddress,omitempty"`
	ExtendedAddress   string `json:"extendedAddress,omitempty"`
	Locality          string `json:"locality,omitempty"`
	Region            string `json:"region,omitempty"`
	PostalCode        string `json:"postalCode,omitempty"`
	CountryCodeAlpha2 string `json:"countryCodeAlpha2,omitempty"`
}

// PayPalAccountNonce is returned by PayPal tokenization
type PayPalAccountNonce struct {
	BaseNonce
	Email            string        `json:"email,omitempty"`
	PayerID          string        `json:"payerId,omitempty"`
	FirstName        string        `json:"firstName,omitempty"`
	LastName         string        `json:"lastName,omitempty"`
	Phone            string        `json:"phone,omitempty"`
	ClientMetadataID string        `json:"clientMetadataId,omitempty"`
	BillingAddress   PostalAddress `json:"billingAddress,omitempty"`
	ShippingAddress  PostalAddress `json:"shippingAddress,omitempty"`
}

// SEPADirectDebitNonce is returned by SEPA Direct Debit tokenization
type SEPADirectDebitNonce struct {
	BaseNonce
	IBANLastFour string `json:"ibanLastFour,omitempty"`
	CustomerID   string `json:"customerId,omitempty"`
	MandateType  string `json:"mandateType,omitempty"`
}

// CardNonce is returned by card tokenization and 3DS authentication
type CardNonce struct {
	BaseNonce
	CardType        string `json:"cardType,omitempty"`
	LastTwo         string `json:"lastTwo,omitempty"`
	LastFour        string `json:"lastFour,omitempty"`
	BIN             string `json:"bin,omitempty"`
	ExpirationMonth string `json:"expirationMonth,omitempty"`
	ExpirationYear  string `json:"expirationYear,omitempty"`
	CardholderName  string `json:"cardholderName,omitempty"`
}

// ThreeDSecureInfo describes the liability outcome of a 3DS authentication
type ThreeDSecureInfo struct {
	LiabilityShifted       bool   `json:"liabilityShifted"`
	LiabilityShiftPossible bool   `json:"liabilityShiftPossible"`
	Status                 string `json:"status,omitempty"`
	Enrolled               string `json:"enrolled,omitempty"`
}

// ThreeDSecureNonce is a card nonce upgraded by 3DS authentication
type ThreeDSecureNonce struct {
	CardNonce
	ThreeDSecure ThreeDSecureInfo `json:"threeDSecureInfo"`
}
