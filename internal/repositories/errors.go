package repositories

import (
	"context"
	"time"

	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"gorm.io/gorm"
)

type Errors struct {
	db *gorm.DB
}

func NewErrorsRepository(db *gorm.DB) *Errors {
	return &Errors{db: db}
}

// Append records an error. Records are never mutated afterwards except
// through Resolve.
func (repo *Errors) Append(ctx context.Context, record *models.ErrorRecord) error {
	record.OccurredAt = time.Now()
	return repo.db.WithContext(ctx).Create(record).Error
}

func (repo *Errors) Resolve(ctx context.Context, recordID int) error {
	now := time.Now()
	return repo.db.WithContext(ctx).Model(&models.ErrorRecord{}).
		Where("id = ?", recordID).
		Update("resolved_at", &now).Error
}

func (repo *Errors) GetBySession(ctx context.Context, sessionID string) ([]models.ErrorRecord, error) {
	var records []models.ErrorRecord
	err := repo.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("occurred_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (repo *Errors) RemoveOldRecords(ctx context.Context, expirationTime time.Time) (int64, error) {
	res := repo.db.WithContext(ctx).
		Where("occurred_at < ? AND resolved_at IS NOT NULL", expirationTime).
		Delete(&models.ErrorRecord{})
	return res.RowsAffected, res.Error
}
