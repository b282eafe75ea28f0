package redirect

import (
	"encoding/json"

	"github.com/kevin07696/payment-sdk/internal/domain"
)

// WebResponse is the echo of a validated return URL sent to tokenize endpoints
type WebResponse struct {
	Response     WebURL `json:"response"`
	ResponseType string `json:"response_type"`
}

type WebURL struct {
	WebURL string `json:"webURL"`
}

// NewWebResponse wraps returnURL in the {"response":{"webURL"},"response_type":"web"} shape
func NewWebResponse(returnURL string) WebResponse {
	return WebResponse{
		Response:     WebURL{WebURL: returnURL},
		ResponseType: "web",
	}
}

// DecodeJSON unmarshals a gateway body, mapping failures to JSON_PARSE
func DecodeJSON(body string, v interface{}) error {
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return domain.WrapError(domain.ErrorCodeJSONParse, "gateway response is not valid JSON", err)
	}
	return nil
}
