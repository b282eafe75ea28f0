package card

import "github.com/kevin07696/payment-sdk/internal/services/ports"

const tokenizeMutation = "mutation TokenizeCreditCard($input: TokenizeCreditCardInput!) {" +
	" tokenizeCreditCard(input: $input) {" +
	" token creditCard { brandCode last4 bin expirationMonth expirationYear cardholderName }" +
	" } }"

type clientSDKMetadata struct {
	Source      string `json:"source"`
	Integration string `json:"integration"`
	SessionID   string `json:"sessionId"`
}

type graphQLCard struct {
	Number          string          `json:"number"`
	ExpirationMonth string          `json:"expirationMonth,omitempty"`
	ExpirationYear  string          `json:"expirationYear,omitempty"`
	CVV             string          `json:"cvv,omitempty"`
	CardholderName  string          `json:"cardholderName,omitempty"`
	BillingAddress  *graphQLAddress `json:"billingAddress,omitempty"`
}

type graphQLAddress struct {
	PostalCode string `json:"postalCode"`
}

type graphQLRequest struct {
	ClientSDKMetadata clientSDKMetadata `json:"clientSdkMetadata"`
	Query             string            `json:"query"`
	OperationName     string            `json:"operationName"`
	Variables         struct {
		Input struct {
			CreditCard graphQLCard `json:"creditCard"`
			Options    struct {
				Validate bool `json:"validate"`
			} `json:"options"`
		} `json:"input"`
	} `json:"variables"`
}

func newGraphQLRequest(c *ports.Card, meta clientSDKMetadata) *graphQLRequest {
	req := &graphQLRequest{
		ClientSDKMetadata: meta,
		Query:             tokenizeMutation,
		OperationName:     "TokenizeCreditCard",
	}
	req.Variables.Input.CreditCard = graphQLCard{
		Number:          c.Number,
		ExpirationMonth: c.ExpirationMonth,
		ExpirationYear:  c.ExpirationYear,
		CVV:             c.CVV,
		CardholderName:  c.CardholderName,
	}
	if c.PostalCode != "" {
		req.Variables.Input.CreditCard.BillingAddress = &graphQLAddress{PostalCode: c.PostalCode}
	}
	req.Variables.Input.Options.Validate = c.ShouldValidate
	return req
}

type graphQLResponse struct {
	Data struct {
		TokenizeCreditCard *struct {
			Token      string `json:"token"`
			CreditCard struct {
				BrandCode       string `json:"brandCode"`
				Last4           string `json:"last4"`
				BIN             string `json:"bin"`
				ExpirationMonth string `json:"expirationMonth"`
				ExpirationYear  string `json:"expirationYear"`
				CardholderName  string `json:"cardholderName"`
			} `json:"creditCard"`
		} `json:"tokenizeCreditCard"`
	} `json:"data"`
}

type restAddress struct {
	PostalCode string `json:"postal_code"`
}

type restCard struct {
	Number          string       `json:"number"`
	ExpirationMonth string       `json:"expiration_month,omitempty"`
	ExpirationYear  string       `json:"expiration_year,omitempty"`
	CVV             string       `json:"cvv,omitempty"`
	CardholderName  string       `json:"cardholder_name,omitempty"`
	BillingAddress  *restAddress `json:"billing_address,omitempty"`
	Options         struct {
		Validate bool `json:"validate"`
	} `json:"options"`
}

type restRequest struct {
	CreditCard restCard          `json:"credit_card"`
	Meta       clientSDKMetadata `json:"_meta"`
}

func newRESTRequest(c *ports.Card, meta clientSDKMetadata) *restRequest {
	req := &restRequest{
		CreditCard: restCard{
			Number:          c.Number,
			ExpirationMonth: c.ExpirationMonth,
			ExpirationYear:  c.ExpirationYear,
			CVV:             c.CVV,
			CardholderName:  c.CardholderName,
		},
		Meta: meta,
	}
	if c.PostalCode != "" {
		req.CreditCard.BillingAddress = &restAddress{PostalCode: c.PostalCode}
	}
	req.CreditCard.Options.Validate = c.ShouldValidate
	return req
}

type restResponse struct {
	CreditCards []struct {
		Type        string `json:"type"`
		Nonce       string `json:"nonce"`
		Description string `json:"description"`
		Default     bool   `json:"default"`
		Details     struct {
			CardType        string `json:"cardType"`
			LastTwo         string `json:"lastTwo"`
			LastFour        string `json:"lastFour"`
			BIN             string `json:"bin"`
			ExpirationMonth string `json:"expirationMonth"`
			ExpirationYear  string `json:"expirationYear"`
			CardholderName  string `json:"cardholderName"`
		} `json:"details"`
	} `json:"creditCards"`
}
