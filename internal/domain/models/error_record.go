package models

import "time"

type ErrorCategory string

const (
	CategoryNormalization   ErrorCategory = "normalization"
	CategoryScoring         ErrorCategory = "scoring_unavailable"
	CategoryNetwork         ErrorCategory = "network"
	CategoryTimeout         ErrorCategory = "timeout"
	CategoryElementNotFound ErrorCategory = "element_not_found"
	CategoryDuplicate       ErrorCategory = "duplicate_detected"
	CategoryManualChallenge ErrorCategory = "manual_challenge"
	CategoryUnverified      ErrorCategory = "unverified"
	CategoryValidation      ErrorCategory = "validation"
	CategoryCancelled       ErrorCategory = "cancelled"
	CategoryFatalEngine     ErrorCategory = "fatal_engine"
)

// ErrorRecord is an append-only audit entry; only ResolvedAt may be set
// after creation.
type ErrorRecord struct {
	ID        int    `gorm:"primaryKey"`
	SessionID string `gorm:"index"`
	AttemptID *int   `gorm:"index"`

	ErrorType string `gorm:"index"`
	Category  ErrorCategory
	Site      string `gorm:"index"`
	Message   string

	URL       string
	PageTitle string
	FormState string

	RecoveryAttempted  bool
	RecoverySuccessful bool

	ScreenshotPath string
	LogPath        string

	OccurredAt time.Time
	ResolvedAt *time.Time
}
