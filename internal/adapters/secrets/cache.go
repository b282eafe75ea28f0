// Package secrets loads merchant authorization strings from a local directory, AWS Secrets
// Manager or HashiCorp Vault.
package secrets

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kevin07696/payment-sdk/internal/adapters/ports"
)

// DefaultField is the key that holds the authorization string in structured secrets
const DefaultField = "authorization"

// fallbackField is tried when DefaultField is absent
const fallbackField = "value"

type cacheEntry struct {
	secret    *ports.Secret
	expiresAt time.Time
}

// secretCache keeps fetched secrets for ttl. A zero ttl disables it.
type secretCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newSecretCache(ttl time.Duration) *secretCache {
	return &secretCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *secretCache) get(key string) *ports.Secret {
	if c.ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	return entry.secret
}

func (c *secretCache) set(key string, secret *ports.Secret) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{secret: secret, expiresAt: c.now().Add(c.ttl)}
}

func cacheKey(path, version string) string {
	if version == "" {
		return path
	}
	return path + "@" + version
}

// fromFields picks the authorization string out of a key/value secret.
// Remaining string fields become metadata.
func fromFields(fields map[string]interface{}, field string) (string, map[string]string, error) {
	if field == "" {
		field = DefaultField
	}

	value, _ := fields[field].(string)
	used := field
	if value == "" {
		value, _ = fields[fallbackField].(string)
		used = fallbackField
	}
	if strings.TrimSpace(value) == "" {
		return "", nil, fmt.Errorf("secret has no %q field", field)
	}

	metadata := make(map[string]string)
	for k, v := range fields {
		if s, ok := v.(string); ok && k != used {
			metadata[k] = s
		}
	}
	return strings.TrimSpace(value), metadata, nil
}

// fromString accepts either a bare authorization string or a JSON object holding one
func fromString(raw, field string) (string, map[string]string, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var fields map[string]interface{}
		if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
			return "", nil, fmt.Errorf("secret looks like JSON but does not parse: %w", err)
		}
		return fromFields(fields, field)
	}
	if trimmed == "" {
		return "", nil, fmt.Errorf("secret is empty")
	}
	return trimmed, nil, nil
}
