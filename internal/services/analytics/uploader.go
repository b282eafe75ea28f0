package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	adapterports "github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"github.com/kevin07696/payment-sdk/internal/domain"
	"github.com/kevin07696/payment-sdk/pkg/encoding"
	"go.uber.org/zap"
)

type analyticsEntry struct {
	Kind      string `json:"kind"`
	Timestamp int64  `json:"timestamp"`
}

type analyticsPayload struct {
	Analytics                []analyticsEntry `json:"analytics"`
	Meta                     json.RawMessage  `json:"_meta"`
	AuthorizationFingerprint string           `json:"authorization_fingerprint,omitempty"`
	TokenizationKey          string           `json:"tokenization_key,omitempty"`
}

// Uploader posts one metadata group to the analytics endpoint
type Uploader struct {
	client adapterports.GatewayClient
	auth   domain.Authorization
	logger *zap.Logger
}

// NewUploader creates an uploader. client should be bound to the analytics host kind.
func NewUploader(client adapterports.GatewayClient, auth domain.Authorization, logger *zap.Logger) *Uploader {
	return &Uploader{
		client: client,
		auth:   auth,
		logger: logger,
	}
}

// Upload sends the batch. Any error leaves the batch for a later attempt.
func (u *Uploader) Upload(ctx context.Context, cfg *domain.Configuration, batch domain.AnalyticsBatch) error {
	body, err := u.buildPayload(batch)
	if err != nil {
		return err
	}

	if _, err := u.client.Post(ctx, cfg.Analytics.URL, body, nil); err != nil {
		return fmt.Errorf("failed to upload analytics batch: %w", err)
	}

	u.logger.Debug("Uploaded analytics batch",
		zap.Int("events", len(batch.Events)),
	)
	return nil
}

func (u *Uploader) buildPayload(batch domain.AnalyticsBatch) (string, error) {
	payload := analyticsPayload{
		Analytics: make([]analyticsEntry, 0, len(batch.Events)),
		Meta:      json.RawMessage(batch.Metadata),
	}
	if !json.Valid(payload.Meta) {
		u.logger.Warn("Discarding malformed analytics metadata")
		payload.Meta = json.RawMessage(`{}`)
	}

	for _, e := range batch.Events {
		payload.Analytics = append(payload.Analytics, analyticsEntry{Kind: e.Name, Timestamp: e.Timestamp})
	}

	switch auth := u.auth.(type) {
	case *domain.ClientToken:
		payload.AuthorizationFingerprint = auth.AuthorizationFingerprint()
	case *domain.TokenizationKey:
		payload.TokenizationKey = auth.String()
	}

	return encoding.EncodeJSONString(payload)
}
