package gateway

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/internal/testutil/mocks"
	pkgerrors "github.com/kevin07696/payment-sdk/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequest_URL(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		want    string
		errCode domain.ErrorCode
	}{
		{
			name: "absolute path ignores base",
			req:  Request{Path: "https://other.test/x", BaseURL: "https://base.test"},
			want: "https://other.test/x",
		},
		{
			name: "relative path joins base",
			req:  Request{Path: "/v1/x", BaseURL: "https://base.test/client_api/"},
			want: "https://base.test/client_api/v1/x",
		},
		{
			name: "relative path without leading slash",
			req:  Request{Path: "v1/x", BaseURL: "https://base.test/client_api"},
			want: "https://base.test/client_api/v1/x",
		},
		{
			name:    "relative path without base",
			req:     Request{Path: "/v1/x"},
			errCode: domain.ErrorCodeConfigurationRequired,
		},
		{
			name:    "empty path",
			req:     Request{BaseURL: "https://base.test"},
			errCode: domain.ErrorCodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.URL()
			if tt.errCode != "" {
				assert.True(t, domain.IsDomainError(err, tt.errCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransport_Send_PreservesHeaderOrderAndBody(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(nil)
	transport := newTestTransport(httpClient)

	req := &Request{Method: http.MethodPost, Path: "https://gateway.test/v1/x", Body: `{"a":1}`}
	req.AddHeader("X-First", "1")
	req.AddHeader("X-Second", "2")

	resp, err := transport.Send(context.Background(), HostGateway, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, 1, httpClient.CallCount())
	sent := httpClient.Calls()[0]
	assert.Equal(t, "1", sent.Header.Get("X-First"))
	assert.Equal(t, "2", sent.Header.Get("X-Second"))
	assert.Equal(t, `{"a":1}`, httpClient.Bodies()[0])
}

func TestTransport_Send_NonSuccessIsNotAnError(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(func(*http.Request) (*http.Response, error) {
		return mocks.JSONResponse(http.StatusInternalServerError, `{}`), nil
	})
	transport := newTestTransport(httpClient)

	resp, err := transport.Send(context.Background(), HostGateway,
		&Request{Method: http.MethodGet, Path: "https://gateway.test/v1/x"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestTransport_Send_UsesClientPerHostKind(t *testing.T) {
	gatewayClient := mocks.NewMockHTTPClient(nil)
	apiClient := mocks.NewMockHTTPClient(nil)

	cfg := DefaultTransportConfig()
	cfg.BreakerKinds = nil
	transport := NewTransport(cfg, map[HostKind]ports.HTTPClient{
		HostGateway: gatewayClient,
		HostAPI:     apiClient,
	}, zap.NewNop())

	ctx := context.Background()
	_, err := transport.Send(ctx, HostAPI, &Request{Method: http.MethodPost, Path: "https://api.test/analytics", Body: "{}"})
	require.NoError(t, err)
	// No GraphQL client configured: falls back to the gateway client
	_, err = transport.Send(ctx, HostGraphQL, &Request{Method: http.MethodPost, Path: "https://gateway.test/graphql", Body: "{}"})
	require.NoError(t, err)

	assert.Equal(t, 1, apiClient.CallCount())
	assert.Equal(t, 1, gatewayClient.CallCount())
}

func TestTransport_Send_BreakerSuspendsHostKind(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset")
	})

	cfg := DefaultTransportConfig()
	cfg.BreakerConfig = CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Hour, MaxRequestsHalfOpen: 1}
	transport := NewTransport(cfg, map[HostKind]ports.HTTPClient{HostAPI: httpClient}, zap.NewNop())

	req := &Request{Method: http.MethodPost, Path: "https://api.test/analytics", Body: "{}"}
	for i := 0; i < 2; i++ {
		_, err := transport.Send(context.Background(), HostAPI, req)
		require.Error(t, err)
	}

	_, err := transport.Send(context.Background(), HostAPI, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, pkgerrors.CategoryNetworkError, pkgerrors.CategoryOf(err))
	assert.Equal(t, 2, httpClient.CallCount())
}

func TestTransport_Send_RateLimiterHonoursContext(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(nil)
	cfg := DefaultTransportConfig()
	cfg.BreakerKinds = nil
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	transport := NewTransport(cfg, map[HostKind]ports.HTTPClient{HostGateway: httpClient}, zap.NewNop())

	req := &Request{Method: http.MethodGet, Path: "https://gateway.test/v1/x"}
	_, err := transport.Send(context.Background(), HostGateway, req)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = transport.Send(ctx, HostGateway, req)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CategoryTimeout, pkgerrors.CategoryOf(err))
	assert.Equal(t, 1, httpClient.CallCount())
}

func TestPinnedTransport_AcceptsPinnedServer(t *testing.T) {
	server := newTLSServer(t)

	transport, err := NewPinnedTransport(DefaultTransportConfig(), PinningConfig{
		Bundles: map[HostKind][]byte{
			HostGateway: certPEM(server),
			HostGraphQL: certPEM(server),
			HostAPI:     certPEM(server),
		},
	}, zap.NewNop())
	require.NoError(t, err)

	resp, err := transport.Send(context.Background(), HostGateway, &Request{Method: http.MethodGet, Path: server.URL})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPinnedTransport_RejectsUnpinnedServer(t *testing.T) {
	server := newTLSServer(t)
	unrelated := unrelatedCAPEM(t)

	transport, err := NewPinnedTransport(DefaultTransportConfig(), PinningConfig{
		Bundles: map[HostKind][]byte{
			HostGateway: unrelated,
			HostGraphQL: unrelated,
			HostAPI:     unrelated,
		},
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = transport.Send(context.Background(), HostGateway, &Request{Method: http.MethodGet, Path: server.URL})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CategoryNetworkError, pkgerrors.CategoryOf(err))
}

func newTLSServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	t.Cleanup(server.Close)
	return server
}

func certPEM(server *httptest.Server) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: server.Certificate().Raw})
}

func unrelatedCAPEM(t *testing.T) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(7),
		Subject:               pkix.Name{CommonName: "unrelated-root"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func TestPinnedTransport_DefaultsToEmbeddedCertificates(t *testing.T) {
	transport, err := NewPinnedTransport(DefaultTransportConfig(), PinningConfig{}, zap.NewNop())
	require.NoError(t, err)

	for _, kind := range []HostKind{HostGateway, HostGraphQL, HostAPI} {
		t.Run(string(kind), func(t *testing.T) {
			client, ok := transport.Client(kind).(*http.Client)
			require.True(t, ok)
			httpTransport, ok := client.Transport.(*http.Transport)
			require.True(t, ok)

			embedded := x509.NewCertPool()
			require.True(t, embedded.AppendCertsFromPEM(EmbeddedCertificates(kind)))

			roots := httpTransport.TLSClientConfig.RootCAs
			require.NotNil(t, roots)
			assert.True(t, roots.Equal(embedded))
		})
	}
}

func TestPinnedTransport_EmbeddedCertificatesRejectOtherRoots(t *testing.T) {
	server := newTLSServer(t)

	transport, err := NewPinnedTransport(DefaultTransportConfig(), PinningConfig{}, zap.NewNop())
	require.NoError(t, err)

	_, err = transport.Send(context.Background(), HostGateway, &Request{Method: http.MethodGet, Path: server.URL})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CategoryNetworkError, pkgerrors.CategoryOf(err))
}

func TestPinnedTransport_OverrideReplacesOneKind(t *testing.T) {
	server := newTLSServer(t)

	transport, err := NewPinnedTransport(DefaultTransportConfig(), PinningConfig{
		Bundles: map[HostKind][]byte{HostGraphQL: certPEM(server)},
	}, zap.NewNop())
	require.NoError(t, err)

	resp, err := transport.Send(context.Background(), HostGraphQL, &Request{Method: http.MethodPost, Path: server.URL, Body: `{}`})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = transport.Send(context.Background(), HostGateway, &Request{Method: http.MethodGet, Path: server.URL})
	assert.Error(t, err)
}

func TestEmbeddedCertificates(t *testing.T) {
	for _, kind := range []HostKind{HostGateway, HostGraphQL, HostAPI} {
		pool := x509.NewCertPool()
		assert.True(t, pool.AppendCertsFromPEM(EmbeddedCertificates(kind)), "kind %s", kind)
	}
	assert.Nil(t, EmbeddedCertificates(HostKind("ftp")))
}

func TestTransport_BodyReadTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"partial":`)
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	cfg := DefaultTransportConfig()
	cfg.ReadTimeout = 50 * time.Millisecond
	transport := NewTransport(cfg, map[HostKind]ports.HTTPClient{HostGateway: server.Client()}, zap.NewNop())

	start := time.Now()
	_, err := transport.Send(context.Background(), HostGateway, &Request{Method: http.MethodGet, Path: server.URL})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CategoryTimeout, pkgerrors.CategoryOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}
