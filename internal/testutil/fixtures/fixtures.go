// Package fixtures provides canned gateway responses and credentials for tests.
package fixtures

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TokenizationKey is a sandbox key for merchant "integration_merchant_id"
const TokenizationKey = "sandbox_tmxhyf7d_integration_merchant_id"

// Fingerprint is the authorization fingerprint embedded in ClientToken
const Fingerprint = "fingerprint-1234|created_at=2024-01-01T00:00:00Z&merchant_id=integration_merchant_id"

// ClientToken builds a client token whose configuration lives under baseURL
func ClientToken(baseURL string) string {
	doc := fmt.Sprintf(`{"version":2,"authorizationFingerprint":%q,"configUrl":"%s/merchants/integration_merchant_id/client_api/v1/configuration"}`,
		Fingerprint, strings.TrimSuffix(baseURL, "/"))
	return base64.StdEncoding.EncodeToString([]byte(doc))
}

// Load returns the named file from the shared testdata directory
func Load(t *testing.T, name string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok, "cannot locate fixtures package")

	data, err := os.ReadFile(filepath.Join(filepath.Dir(file), "testdata", name))
	require.NoError(t, err, "fixture %s", name)
	return string(data)
}

// Configuration returns the configuration fixture with every endpoint pointing at baseURL
func Configuration(t *testing.T, baseURL string) string {
	t.Helper()
	return strings.ReplaceAll(Load(t, "configuration.json"), "{{BASE_URL}}", strings.TrimSuffix(baseURL, "/"))
}
