package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	secretsmanagertypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const tokenizationKey = "development_testing_integration_merchant_id"

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLocalSecretManager(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plain", tokenizationKey+"\n")
	writeFile(t, dir, "merchants/acme.json", `{"authorization":"`+tokenizationKey+`","env":"sandbox"}`)
	writeFile(t, dir, "legacy.json", `{"value":"legacy-key"}`)
	writeFile(t, dir, "empty.json", `{"other":"x"}`)

	sm, err := NewLocalSecretManager(&LocalConfig{BaseDir: dir}, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	secret, err := sm.GetSecret(ctx, "plain")
	require.NoError(t, err)
	assert.Equal(t, tokenizationKey, secret.Value)
	assert.Equal(t, "latest", secret.Version)
	assert.NotEmpty(t, secret.CreatedAt)

	secret, err = sm.GetSecret(ctx, "merchants/acme.json")
	require.NoError(t, err)
	assert.Equal(t, tokenizationKey, secret.Value)
	assert.Equal(t, "sandbox", secret.Metadata["env"])

	secret, err = sm.GetSecretVersion(ctx, "legacy.json", "latest")
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", secret.Value)

	_, err = sm.GetSecret(ctx, "empty.json")
	assert.ErrorContains(t, err, `no "authorization" field`)

	_, err = sm.GetSecret(ctx, "missing")
	assert.ErrorContains(t, err, "secret not found")

	_, err = sm.GetSecret(ctx, "../outside")
	assert.ErrorContains(t, err, "escapes")

	_, err = sm.GetSecretVersion(ctx, "plain", "3")
	assert.Error(t, err)
}

func TestNewLocalSecretManager_RequiresDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file", "x")

	_, err := NewLocalSecretManager(&LocalConfig{BaseDir: filepath.Join(dir, "file")}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewLocalSecretManager(&LocalConfig{BaseDir: filepath.Join(dir, "nope")}, zap.NewNop())
	assert.Error(t, err)
}

type fakeSecretsAPI struct {
	calls  []*secretsmanager.GetSecretValueInput
	output *secretsmanager.GetSecretValueOutput
	err    error
}

func (f *fakeSecretsAPI) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls = append(f.calls, in)
	return f.output, f.err
}

func TestAWSSecretsManager_ReadsAndCaches(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeSecretsAPI{output: &secretsmanager.GetSecretValueOutput{
		ARN:           aws.String("arn:aws:secretsmanager:us-east-1:123:secret:acme"),
		SecretString:  aws.String(`{"authorization":"` + tokenizationKey + `"}`),
		VersionId:     aws.String("v-1"),
		VersionStages: []string{"AWSCURRENT"},
		CreatedDate:   &created,
	}}
	sm := newAWSSecretsManagerAdapter(api, DefaultAWSSecretsManagerConfig("us-east-1"), zap.NewNop())

	secret, err := sm.GetSecret(context.Background(), "payment-sdk/acme")
	require.NoError(t, err)
	assert.Equal(t, tokenizationKey, secret.Value)
	assert.Equal(t, "v-1", secret.Version)
	assert.Equal(t, "2025-03-01T12:00:00Z", secret.CreatedAt)
	assert.Equal(t, "AWSCURRENT", secret.Metadata["stages"])

	_, err = sm.GetSecret(context.Background(), "payment-sdk/acme")
	require.NoError(t, err)
	assert.Len(t, api.calls, 1)
}

func TestAWSSecretsManager_VersionSelectors(t *testing.T) {
	api := &fakeSecretsAPI{output: &secretsmanager.GetSecretValueOutput{SecretString: aws.String(tokenizationKey)}}
	cfg := DefaultAWSSecretsManagerConfig("us-east-1")
	cfg.CacheTTL = 0
	sm := newAWSSecretsManagerAdapter(api, cfg, zap.NewNop())

	_, err := sm.GetSecretVersion(context.Background(), "acme", "AWSPREVIOUS")
	require.NoError(t, err)
	_, err = sm.GetSecretVersion(context.Background(), "acme", "3f1c-uuid")
	require.NoError(t, err)

	require.Len(t, api.calls, 2)
	assert.Equal(t, "AWSPREVIOUS", aws.ToString(api.calls[0].VersionStage))
	assert.Nil(t, api.calls[0].VersionId)
	assert.Equal(t, "3f1c-uuid", aws.ToString(api.calls[1].VersionId))
}

func TestAWSSecretsManager_NotFound(t *testing.T) {
	api := &fakeSecretsAPI{err: &secretsmanagertypes.ResourceNotFoundException{Message: aws.String("nope")}}
	sm := newAWSSecretsManagerAdapter(api, DefaultAWSSecretsManagerConfig("us-east-1"), zap.NewNop())

	_, err := sm.GetSecret(context.Background(), "acme")
	assert.ErrorContains(t, err, "secret not found: acme")
}

func TestSecretCache_Expires(t *testing.T) {
	now := time.Now()
	c := newSecretCache(time.Minute)
	c.now = func() time.Time { return now }

	assert.Nil(t, c.get("missing"))

	c.set("acme", &ports.Secret{Value: tokenizationKey})
	assert.NotNil(t, c.get("acme"))

	now = now.Add(2 * time.Minute)
	assert.Nil(t, c.get("acme"))

	disabled := newSecretCache(0)
	disabled.set("acme", &ports.Secret{Value: tokenizationKey})
	assert.Nil(t, disabled.get("acme"))
}

func newVaultServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if v := r.URL.Query().Get("version"); v != "" {
			key += "?version=" + v
		}
		body, ok := routes[key]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVaultAdapter_KVv2(t *testing.T) {
	srv := newVaultServer(t, map[string]string{
		"/v1/secret/data/payment-sdk/acme": `{"data":{"data":{"authorization":"` + tokenizationKey + `","owner":"payments"},
			"metadata":{"created_time":"2025-03-01T12:00:00Z","version":3,"destroyed":false}}}`,
		"/v1/secret/data/payment-sdk/acme?version=2": `{"data":{"data":{"authorization":"older-key"},
			"metadata":{"created_time":"2025-02-01T12:00:00Z","version":2,"destroyed":false}}}`,
	})

	cfg := DefaultVaultConfig(srv.URL)
	cfg.Token = "root"
	sm, err := NewVaultAdapter(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	secret, err := sm.GetSecret(context.Background(), "payment-sdk/acme")
	require.NoError(t, err)
	assert.Equal(t, tokenizationKey, secret.Value)
	assert.Equal(t, "3", secret.Version)
	assert.Equal(t, "2025-03-01T12:00:00Z", secret.CreatedAt)
	assert.Equal(t, "payments", secret.Metadata["owner"])

	secret, err = sm.GetSecretVersion(context.Background(), "payment-sdk/acme", "2")
	require.NoError(t, err)
	assert.Equal(t, "older-key", secret.Value)

	_, err = sm.GetSecret(context.Background(), "payment-sdk/missing")
	assert.ErrorContains(t, err, "secret not found")

	_, err = sm.GetSecretVersion(context.Background(), "payment-sdk/acme", "latest")
	assert.Error(t, err)
}

func TestVaultAdapter_KVv1(t *testing.T) {
	srv := newVaultServer(t, map[string]string{
		"/v1/kv/acme": `{"data":{"value":"` + tokenizationKey + `"}}`,
	})

	cfg := DefaultVaultConfig(srv.URL)
	cfg.Token = "root"
	cfg.MountPath = "kv"
	cfg.KVVersion = 1
	sm, err := NewVaultAdapter(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	secret, err := sm.GetSecret(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, tokenizationKey, secret.Value)

	_, err = sm.GetSecretVersion(context.Background(), "acme", "2")
	assert.ErrorContains(t, err, "KV v2")
}

func TestVaultAdapter_RequiresCredentials(t *testing.T) {
	cfg := DefaultVaultConfig("http://127.0.0.1:1")
	_, err := NewVaultAdapter(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "token is required")

	cfg.AuthMethod = "kubernetes"
	_, err = NewVaultAdapter(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported auth method")
}
