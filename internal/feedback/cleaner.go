package feedback

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type attemptCleanupRepository interface {
	RemoveOldAttempts(ctx context.Context, expirationTime time.Time) (int64, error)
}

type errorCleanupRepository interface {
	RemoveOldRecords(ctx context.Context, expirationTime time.Time) (int64, error)
}

// HistoryCleaner prunes failed and duplicate attempts plus resolved error
// records that fell out of the history window. Submitted attempts are
// never pruned.
type HistoryCleaner struct {
	attempts        attemptCleanupRepository
	errorRecords    errorCleanupRepository
	cron            *cron.Cron
	retentionInDays int
}

func NewHistoryCleaner(attempts attemptCleanupRepository, errorRecords errorCleanupRepository,
	retentionInDays int) (*HistoryCleaner, error) {

	if retentionInDays <= 0 {
		return nil, errors.New("retention in days must be greater than zero")
	}

	hc := &HistoryCleaner{
		attempts:        attempts,
		errorRecords:    errorRecords,
		cron:            cron.New(),
		retentionInDays: retentionInDays,
	}

	_, err := hc.cron.AddFunc("0 0 * * *", hc.cleanOldHistory)
	if err != nil {
		return nil, err
	}

	hc.cron.Start()
	log.Infof("history cleaner started, retention in days: %d", hc.retentionInDays)
	return hc, nil
}

func (hc *HistoryCleaner) Stop() {
	hc.cron.Stop()
}

func (hc *HistoryCleaner) cleanOldHistory() {
	expirationTime := time.Now().Add(-time.Duration(hc.retentionInDays) * 24 * time.Hour)

	rowsAffected, err := hc.attempts.RemoveOldAttempts(context.Background(), expirationTime)
	if err != nil {
		log.Errorf("Failed to clean old attempts: %v", err)
	} else {
		log.Infof("Old attempts was cleaned at %v, affected rows: %v", time.Now(), rowsAffected)
	}

	rowsAffected, err = hc.errorRecords.RemoveOldRecords(context.Background(), expirationTime)
	if err != nil {
		log.Errorf("Failed to clean old error records: %v", err)
	} else {
		log.Infof("Old error records was cleaned at %v, affected rows: %v", time.Now(), rowsAffected)
	}
}
