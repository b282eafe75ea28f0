package gateway

import (
	"net/http"

	pkgerrors "github.com/kevin07696/payment-sdk/pkg/errors"
)

// ParseResponse returns the body of a 2xx response and a typed error otherwise
func ParseResponse(resp *Response) (string, error) {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return resp.Body, nil

	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return "", pkgerrors.ParseErrorWithResponse(code, resp.Body)

	case code == http.StatusUnauthorized:
		return "", pkgerrors.NewGatewayError(code, pkgerrors.CategoryAuthentication,
			pkgerrors.ParseErrorMessage(resp.Body, "Authentication failed"), resp.Body)

	case code == http.StatusForbidden:
		return "", pkgerrors.NewGatewayError(code, pkgerrors.CategoryAuthorization,
			pkgerrors.ParseErrorMessage(resp.Body, "Authorization failed"), resp.Body)

	case code == http.StatusUpgradeRequired:
		return "", pkgerrors.NewGatewayError(code, pkgerrors.CategoryUpgradeRequired,
			"Please upgrade the SDK", resp.Body)

	case code == http.StatusTooManyRequests:
		return "", pkgerrors.NewGatewayError(code, pkgerrors.CategoryRateLimited,
			"You are being rate-limited", resp.Body)

	case code == http.StatusServiceUnavailable:
		return "", pkgerrors.NewGatewayError(code, pkgerrors.CategoryDownForMaintenance,
			"The gateway is down for maintenance", resp.Body)

	case code >= 500:
		return "", pkgerrors.NewGatewayError(code, pkgerrors.CategoryServerError,
			pkgerrors.ParseErrorMessage(resp.Body, "There was a problem processing the request"), resp.Body)

	default:
		return "", pkgerrors.NewGatewayError(code, pkgerrors.CategoryUnexpected,
			pkgerrors.ParseErrorMessage(resp.Body, "An unexpected error occurred"), resp.Body)
	}
}
