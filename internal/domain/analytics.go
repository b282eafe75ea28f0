package domain

import (
	"encoding/json"
	"fmt"
)

// AnalyticsMetadata is captured once when an event is created.
// Events whose encoded metadata is identical are sent in the same batch.
type AnalyticsMetadata struct {
	Platform                         string `json:"platform"`
	PlatformVersion                  string `json:"platformVersion"`
	SDKVersion                       string `json:"sdkVersion"`
	MerchantAppID                    string `json:"merchantAppId"`
	MerchantAppName                  string `json:"merchantAppName"`
	SessionID                        string `json:"sessionId"`
	IntegrationType                  string `json:"integrationType"`
	DeviceRooted                     string `json:"deviceRooted"`
	DeviceManufacturer               string `json:"deviceManufacturer"`
	DeviceModel                      string `json:"deviceModel"`
	DeviceAppGeneratedPersistentUUID string `json:"deviceAppGeneratedPersistentUuid"`
	IsSimulator                      string `json:"isSimulator"`
	MerchantID                       string `json:"merchantId,omitempty"`
	Environment                      string `json:"environment,omitempty"`
	AuthorizationType                string `json:"authorizationType"`
}

// Encode returns the canonical JSON used both for storage and for grouping
func (m AnalyticsMetadata) Encode() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode analytics metadata: %w", err)
	}
	return string(b), nil
}

// AnalyticsEvent is one usage event. ID is assigned by the store.
type AnalyticsEvent struct {
	ID        int64
	Name      string
	Timestamp int64
	Metadata  string
}

// AnalyticsBatch is a set of persisted events sharing one metadata blob
type AnalyticsBatch struct {
	Metadata string
	Events   []AnalyticsEvent
}

// IDs returns the store ids of every event in the batch
func (b AnalyticsBatch) IDs() []int64 {
	ids := make([]int64, 0, len(b.Events))
	for _, e := range b.Events {
		ids = append(ids, e.ID)
	}
	return ids
}
