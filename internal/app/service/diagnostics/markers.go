package diagnostics

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coursemint/settlement/internal/models"
)

// Markers reads and writes "repair already ran" flags. Persisted server-side
// so every caller sees the same completion state.
type Markers interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context, key string) error
}

type markerStore struct {
	db *gorm.DB
}

func NewMarkers(db *gorm.DB) Markers { return &markerStore{db: db} }

func (m *markerStore) Get(ctx context.Context, key string) (string, bool, error) {
	var row models.ProcessState
	err := m.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

func (m *markerStore) Set(ctx context.Context, key, value string) error {
	row := &models.ProcessState{Key: key, Value: value, UpdatedAt: time.Now()}
	return m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(row).Error
}

func (m *markerStore) Clear(ctx context.Context, key string) error {
	return m.db.WithContext(ctx).Where("key = ?", key).Delete(&models.ProcessState{}).Error
}
