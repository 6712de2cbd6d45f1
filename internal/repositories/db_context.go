package repositories

import (
	"fmt"

	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(connectionString string) (*DbContext, error) {
	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func (c *DbContext) Migrate() error {
	err := c.DB.AutoMigrate(models.JobPosting{})
	if err != nil {
		return fmt.Errorf("failed to migrate JobPosting entity: %w", err)
	}

	err = c.DB.AutoMigrate(models.ApplicationAttempt{})
	if err != nil {
		return fmt.Errorf("failed to migrate ApplicationAttempt entity: %w", err)
	}

	err = c.DB.AutoMigrate(models.AutomationSession{})
	if err != nil {
		return fmt.Errorf("failed to migrate AutomationSession entity: %w", err)
	}

	err = c.DB.AutoMigrate(models.ErrorRecord{})
	if err != nil {
		return fmt.Errorf("failed to migrate ErrorRecord entity: %w", err)
	}

	err = c.DB.AutoMigrate(models.SiteWeight{})
	if err != nil {
		return fmt.Errorf("failed to migrate SiteWeight entity: %w", err)
	}

	err = c.DB.AutoMigrate(models.ArbitraryData{})
	if err != nil {
		return fmt.Errorf("failed to migrate ArbitraryData entity: %w", err)
	}

	return nil
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	return db.Close()
}
