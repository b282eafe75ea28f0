package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kevin07696/payment-sdk/internal/adapters/ports"
	"github.com/kevin07696/payment-sdk/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const settingInstallationID = "installation_id"

type analyticsEventRow struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	EventName string `gorm:"column:event_name;not null"`
	Timestamp int64  `gorm:"column:timestamp;not null"`
	MetaJSON  string `gorm:"column:meta_json;not null;index"`
}

func (analyticsEventRow) TableName() string { return "analytics_events" }

type settingRow struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value string `gorm:"column:value;not null"`
}

func (settingRow) TableName() string { return "settings" }

// analyticsStore implements ports.AnalyticsStore on SQLite
type analyticsStore struct {
	adapter *SQLiteAdapter
	logger  *zap.Logger
}

// NewAnalyticsStore creates an analytics store backed by the adapter
func NewAnalyticsStore(adapter *SQLiteAdapter, logger *zap.Logger) ports.AnalyticsStore {
	return &analyticsStore{
		adapter: adapter,
		logger:  logger,
	}
}

func (s *analyticsStore) Append(ctx context.Context, event domain.AnalyticsEvent) (int64, error) {
	db, cancel := s.adapter.DB(ctx)
	defer cancel()

	row := analyticsEventRow{
		EventName: event.Name,
		Timestamp: event.Timestamp,
		MetaJSON:  event.Metadata,
	}
	if err := db.Create(&row).Error; err != nil {
		return 0, domain.WrapError(domain.ErrorCodeStorage, "failed to persist analytics event", err)
	}
	return row.ID, nil
}

func (s *analyticsStore) DrainGroupedByMetadata(ctx context.Context) ([]domain.AnalyticsBatch, error) {
	db, cancel := s.adapter.DB(ctx)
	defer cancel()

	var rows []analyticsEventRow
	if err := db.Order("id asc").Find(&rows).Error; err != nil {
		return nil, domain.WrapError(domain.ErrorCodeStorage, "failed to read analytics events", err)
	}

	var batches []domain.AnalyticsBatch
	index := make(map[string]int)
	for _, row := range rows {
		i, ok := index[row.MetaJSON]
		if !ok {
			i = len(batches)
			index[row.MetaJSON] = i
			batches = append(batches, domain.AnalyticsBatch{Metadata: row.MetaJSON})
		}
		batches[i].Events = append(batches[i].Events, domain.AnalyticsEvent{
			ID:        row.ID,
			Name:      row.EventName,
			Timestamp: row.Timestamp,
			Metadata:  row.MetaJSON,
		})
	}
	return batches, nil
}

func (s *analyticsStore) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	db, cancel := s.adapter.DB(ctx)
	defer cancel()

	result := db.Where("id IN ?", ids).Delete(&analyticsEventRow{})
	if result.Error != nil {
		return domain.WrapError(domain.ErrorCodeStorage, "failed to delete analytics events", result.Error)
	}

	s.logger.Debug("Deleted acknowledged analytics events",
		zap.Int64("rows", result.RowsAffected),
	)
	return nil
}

func (s *analyticsStore) Count(ctx context.Context) (int64, error) {
	db, cancel := s.adapter.DB(ctx)
	defer cancel()

	var n int64
	if err := db.Model(&analyticsEventRow{}).Count(&n).Error; err != nil {
		return 0, domain.WrapError(domain.ErrorCodeStorage, "failed to count analytics events", err)
	}
	return n, nil
}

// InstallationID returns the persisted installation id, creating it on first use
func (s *analyticsStore) InstallationID(ctx context.Context) (string, error) {
	var row settingRow
	err := s.adapter.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Where(settingRow{Key: settingInstallationID}).
			Attrs(settingRow{Value: uuid.NewString()}).
			FirstOrCreate(&row).Error
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrorCodeStorage, "failed to load installation id", err)
	}
	if row.Value == "" {
		return "", domain.NewDomainError(domain.ErrorCodeStorage, fmt.Sprintf("setting %s is empty", settingInstallationID))
	}
	return row.Value, nil
}

func (s *analyticsStore) Close() error {
	return s.adapter.Close()
}
