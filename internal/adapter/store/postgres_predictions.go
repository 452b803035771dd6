package store

import (
	"context"
	"fmt"
	"time"

	"recserve/internal/domain/entity"
	"recserve/internal/domain/repository"

	"gorm.io/gorm"
)

var _ repository.PredictionStore = (*PredictionDB)(nil)

// predictionRow is the append-only predictions table consumed by the
// offline A/B analysis. No update or delete path exists in the core.
type predictionRow struct {
	ID           uint      `gorm:"primaryKey"`
	UserID       string    `gorm:"column:user_id;index"`
	ItemID       string    `gorm:"column:item_id"`
	ModelVersion string    `gorm:"column:model_version;index"`
	Score        float64   `gorm:"column:score"`
	BatchID      string    `gorm:"column:batch_id;index"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (predictionRow) TableName() string { return "predictions" }

// PredictionDB persists ranking batches to Postgres.
type PredictionDB struct {
	db *gorm.DB
}

func NewPredictionDB(db *gorm.DB) *PredictionDB {
	return &PredictionDB{db: db}
}

// Migrate creates the predictions table if needed.
func (s *PredictionDB) Migrate() error {
	return s.db.AutoMigrate(&predictionRow{})
}

// InsertBatch writes all records of one ranking call as a single
// multi-row INSERT inside a transaction, so the batch lands all-or-nothing.
func (s *PredictionDB) InsertBatch(ctx context.Context, preds []entity.Prediction) error {
	if len(preds) == 0 {
		return nil
	}

	rows := make([]predictionRow, len(preds))
	for i, p := range preds {
		rows[i] = predictionRow{
			UserID:       p.UserID,
			ItemID:       p.ItemID,
			ModelVersion: p.ModelVersion,
			Score:        p.Score,
			BatchID:      p.BatchID,
		}
	}

	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("%w: %v", entity.ErrPersistenceFailure, err)
	}
	return nil
}
