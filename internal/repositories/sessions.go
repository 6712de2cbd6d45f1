package repositories

import (
	"context"
	"time"

	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"gorm.io/gorm"
)

type Sessions struct {
	db *gorm.DB
}

func NewSessionsRepository(db *gorm.DB) *Sessions {
	return &Sessions{db: db}
}

func (repo *Sessions) Create(ctx context.Context, session *models.AutomationSession) error {
	session.StartedAt = time.Now()
	session.Status = models.SessionActive
	return repo.db.WithContext(ctx).Create(session).Error
}

func (repo *Sessions) Update(ctx context.Context, session models.AutomationSession) error {
	return repo.db.WithContext(ctx).Model(&models.AutomationSession{}).
		Where("id = ?", session.ID).
		Updates(map[string]any{
			"status":                  session.Status,
			"ended_at":                session.EndedAt,
			"attempted":               session.Attempted,
			"successful":              session.Successful,
			"failed":                  session.Failed,
			"duplicate":               session.Duplicate,
			"manual":                  session.Manual,
			"per_site":                session.PerSite,
			"average_attempt_seconds": session.AverageAttemptSeconds,
			"total_errors":            session.TotalErrors,
			"critical_errors":         session.CriticalErrors,
			"notes":                   session.Notes,
		}).Error
}

func (repo *Sessions) GetByID(ctx context.Context, id string) (*models.AutomationSession, error) {
	var session models.AutomationSession
	if err := repo.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}
