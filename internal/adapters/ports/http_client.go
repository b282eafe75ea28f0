package ports

import "net/http"

// HTTPClient is the minimal client the gateway transport sends through.
// One instance per host kind; production clients carry pinned TLS roots.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
