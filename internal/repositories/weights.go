package repositories

import (
	"context"
	"time"

	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Weights struct {
	db *gorm.DB
}

func NewWeightsRepository(db *gorm.DB) *Weights {
	return &Weights{db: db}
}

// GetAll returns the persisted site weight table. Sites without a row
// implicitly weigh 1.0.
func (repo *Weights) GetAll(ctx context.Context) (map[string]float64, error) {
	var rows []models.SiteWeight
	if err := repo.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	weights := make(map[string]float64, len(rows))
	for _, row := range rows {
		weights[row.Site] = row.Weight
	}
	return weights, nil
}

func (repo *Weights) Save(ctx context.Context, site string, weight float64) error {
	return repo.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "site"}},
		DoUpdates: clause.AssignmentColumns([]string{"weight", "updated_at"}),
	}).Create(&models.SiteWeight{
		Site:      site,
		Weight:    weight,
		UpdatedAt: time.Now(),
	}).Error
}
