package sepa

import "github.com/kevin07696/payment-sdk/internal/domain"

type billingAddress struct {
	AddressLine1 string `json:"address_line_1,omitempty"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	AdminArea1   string `json:"admin_area_1,omitempty"`
	AdminArea2   string `json:"admin_area_2,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	CountryCode  string `json:"country_code,omitempty"`
}

func newBillingAddress(a *domain.PostalAddress) *billingAddress {
	if a == nil {
		return nil
	}
	return &billingAddress{
		AddressLine1: a.StreetAddress,
		AddressLine2: a.ExtendedAddress,
		AdminArea1:   a.Locality,
		AdminArea2:   a.Region,
		PostalCode:   a.PostalCode,
		CountryCode:  a.CountryCodeAlpha2,
	}
}

type sepaDebit struct {
	CustomerID        string          `json:"merchant_or_partner_customer_id"`
	MandateType       string          `json:"mandate_type"`
	AccountHolderName string          `json:"account_holder_name"`
	IBAN              string          `json:"iban"`
	BillingAddress    *billingAddress `json:"billing_address,omitempty"`
}

type createBody struct {
	SEPADebit         sepaDebit `json:"sepa_debit"`
	Locale            string    `json:"locale,omitempty"`
	CancelURL         string    `json:"cancel_url"`
	ReturnURL         string    `json:"return_url"`
	MerchantAccountID string    `json:"merchant_account_id,omitempty"`
}

type mandateResponse struct {
	Message struct {
		Body struct {
			SEPADebitAccount struct {
				ApprovalURL        string `json:"approvalUrl"`
				IBANLastChars      string `json:"ibanLastChars"`
				CustomerID         string `json:"customerId"`
				BankReferenceToken string `json:"bankReferenceToken"`
				MandateType        string `json:"mandateType"`
			} `json:"sepaDebitAccount"`
		} `json:"body"`
	} `json:"message"`
}

type tokenizeAccount struct {
	IBANLastChars      string `json:"iban_last_chars"`
	CustomerID         string `json:"customer_id"`
	BankReferenceToken string `json:"bank_reference_token"`
	MandateType        string `json:"mandate_type"`
	MerchantAccountID  string `json:"merchant_account_id,omitempty"`
}

type tokenizeBody struct {
	SEPADebitAccount tokenizeAccount `json:"sepa_debit_account"`
}

type nonceResponse struct {
	Nonce   string `json:"nonce"`
	Details struct {
		IBANLastChars string `json:"ibanLastChars"`
		CustomerID    string `json:"customerId"`
		MandateType   string `json:"mandateType"`
	} `json:"details"`
}
