package repositories

import (
	"context"
	"time"

	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Postings struct {
	db *gorm.DB
}

func NewPostingsRepository(db *gorm.DB) *Postings {
	return &Postings{db: db}
}

func (repo *Postings) FindByExternalID(ctx context.Context, site, externalID string) (*models.JobPosting, error) {
	var posting models.JobPosting
	err := repo.db.WithContext(ctx).
		Where("site = ? AND external_id = ?", site, externalID).
		First(&posting).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &posting, nil
}

func (repo *Postings) Create(ctx context.Context, posting *models.JobPosting) error {
	posting.DiscoveredAt = time.Now()
	return repo.db.WithContext(ctx).Create(posting).Error
}

// Refresh overwrites the mutable fields of a re-scraped posting. Identity
// and the match score survive the update; re-scoring goes through UpdateScore.
func (repo *Postings) Refresh(ctx context.Context, posting models.JobPosting) error {
	return repo.db.WithContext(ctx).Model(&models.JobPosting{}).
		Where("id = ?", posting.ID).
		Updates(map[string]any{
			"title":        posting.Title,
			"company":      posting.Company,
			"location":     posting.Location,
			"requirements": posting.Requirements,
			"content_hash": posting.ContentHash,
			"url":          posting.URL,
			"posted_date":  posting.PostedDate,
			"is_active":    true,
		}).Error
}

func (repo *Postings) UpdateScore(ctx context.Context, postingID int, score float64, tags []string) error {
	return repo.db.WithContext(ctx).Model(&models.JobPosting{}).
		Where("id = ?", postingID).
		Updates(map[string]any{
			"match_score": score,
			"match_tags":  models.JoinTags(tags),
		}).Error
}

func (repo *Postings) Deactivate(ctx context.Context, postingID int) error {
	return repo.db.WithContext(ctx).Model(&models.JobPosting{}).
		Where("id = ?", postingID).
		Update("is_active", false).Error
}

// GetActive returns active postings for the given sites, newest first.
func (repo *Postings) GetActive(ctx context.Context, sites []string) ([]models.JobPosting, error) {
	var postings []models.JobPosting
	query := repo.db.WithContext(ctx).Where("is_active = ?", true)
	if len(sites) > 0 {
		query = query.Where("site IN ?", sites)
	}
	if err := query.Order("discovered_at DESC").Find(&postings).Error; err != nil {
		return nil, err
	}
	return postings, nil
}
