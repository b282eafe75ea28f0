package gateway

import (
	_ "embed"
)

// Root certificates shipped with the SDK, one bundle per host kind.
// Rotated by releasing a new SDK version.
var (
	//go:embed certs/gateway.pem
	gatewayCertificates []byte

	//go:embed certs/graphql.pem
	graphQLCertificates []byte

	//go:embed certs/api.pem
	apiCertificates []byte
)

// EmbeddedCertificates returns the built-in PEM bundle for kind, or nil for an unknown kind
func EmbeddedCertificates(kind HostKind) []byte {
	switch kind {
	case HostGateway:
		return gatewayCertificates
	case HostGraphQL:
		return graphQLCertificates
	case HostAPI:
		return apiCertificates
	default:
		return nil
	}
}
