package repositories

import (
	"context"
	"time"

	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Attempts struct {
	db *gorm.DB
}

func NewAttemptsRepository(db *gorm.DB) *Attempts {
	return &Attempts{db: db}
}

func (repo *Attempts) Create(ctx context.Context, attempt *models.ApplicationAttempt) error {
	return repo.db.WithContext(ctx).Create(attempt).Error
}

func (repo *Attempts) FindByProfileAndPosting(ctx context.Context, profileID string, postingID int) (*models.ApplicationAttempt, error) {
	var attempt models.ApplicationAttempt
	err := repo.db.WithContext(ctx).
		Where("profile_id = ? AND posting_id = ?", profileID, postingID).
		First(&attempt).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (repo *Attempts) Update(ctx context.Context, attempt models.ApplicationAttempt) error {
	return repo.db.WithContext(ctx).Model(&models.ApplicationAttempt{}).
		Where("id = ?", attempt.ID).
		Updates(map[string]any{
			"status":          attempt.Status,
			"retry_count":     attempt.RetryCount,
			"last_retry_at":   attempt.LastRetryAt,
			"error_message":   attempt.ErrorMessage,
			"screenshot_path": attempt.ScreenshotPath,
			"applied_at":      attempt.AppliedAt,
			"session_id":      attempt.SessionID,
		}).Error
}

// AttemptedPostingIDs returns posting ids the profile already has an
// attempt for. The planner filters these out. Parked attempts are not
// included: a pair waiting on manual intervention stays plannable, so
// the next session can resume it from its progress snapshot.
func (repo *Attempts) AttemptedPostingIDs(ctx context.Context, profileID string) (map[int]bool, error) {
	var ids []int
	err := repo.db.WithContext(ctx).Model(&models.ApplicationAttempt{}).
		Where("profile_id = ? AND status <> ?", profileID, models.StatusManual).
		Pluck("posting_id", &ids).Error
	if err != nil {
		return nil, err
	}

	attempted := make(map[int]bool, len(ids))
	for _, id := range ids {
		attempted[id] = true
	}
	return attempted, nil
}

// HasSubmitted reports whether the (profile, posting) pair already has a
// submitted attempt. This is the duplicate guard consulted before any
// browser work.
func (repo *Attempts) HasSubmitted(ctx context.Context, profileID string, postingID int) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&models.ApplicationAttempt{}).
		Where("profile_id = ? AND posting_id = ? AND status = ?", profileID, postingID, models.StatusSubmitted).
		Count(&count).Error
	return count > 0, err
}

func (repo *Attempts) CountSubmittedSince(ctx context.Context, profileID string, since time.Time) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&models.ApplicationAttempt{}).
		Where("profile_id = ? AND status = ? AND applied_at >= ?", profileID, models.StatusSubmitted, since).
		Count(&count).Error
	return count, err
}

// RecentTerminal returns terminal attempts inside the trailing history
// window, newest first, capped at limit. Parked attempts are excluded.
func (repo *Attempts) RecentTerminal(ctx context.Context, since time.Time, limit int) ([]models.ApplicationAttempt, error) {
	terminal := []models.ApplicationStatus{
		models.StatusSubmitted, models.StatusFailed, models.StatusDuplicate,
		models.StatusRejected, models.StatusInterview, models.StatusOffer,
	}

	var attempts []models.ApplicationAttempt
	err := repo.db.WithContext(ctx).
		Where("status IN ? AND updated_at >= ?", terminal, since).
		Order("updated_at DESC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

// RemoveOldAttempts prunes failed and duplicate attempts that fell out of
// the history window. Submitted attempts are kept forever: they back the
// uniqueness guarantee.
func (repo *Attempts) RemoveOldAttempts(ctx context.Context, expirationTime time.Time) (int64, error) {
	res := repo.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?",
			[]models.ApplicationStatus{models.StatusFailed, models.StatusDuplicate}, expirationTime).
		Delete(&models.ApplicationAttempt{})
	return res.RowsAffected, res.Error
}
