package models

import (
	"strings"
	"time"
)

type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusSubmitted ApplicationStatus = "submitted"
	StatusFailed    ApplicationStatus = "failed"
	StatusDuplicate ApplicationStatus = "duplicate"
	StatusManual    ApplicationStatus = "manual_intervention"
	StatusRejected  ApplicationStatus = "rejected"
	StatusInterview ApplicationStatus = "interview"
	StatusOffer     ApplicationStatus = "offer"
)

// Terminal reports whether the status ends an attempt. A parked
// (manual intervention) attempt is not terminal: it waits for a human.
func (s ApplicationStatus) Terminal() bool {
	switch s {
	case StatusSubmitted, StatusFailed, StatusDuplicate, StatusRejected, StatusInterview, StatusOffer:
		return true
	}
	return false
}

// Succeeded reports whether the status counts as a successful application
// for feedback purposes. Duplicates count as neither success nor failure.
func (s ApplicationStatus) Succeeded() bool {
	switch s {
	case StatusSubmitted, StatusInterview, StatusOffer:
		return true
	}
	return false
}

// ApplicationAttempt is one concrete application execution for a
// (profile, posting) pair. The partial unique index allows duplicate and
// parked rows for a pair but at most one submitted row, which backs the
// uniqueness guarantee of the duplicate pre-check.
type ApplicationAttempt struct {
	ID        int    `gorm:"primaryKey"`
	ProfileID string `gorm:"index:idx_attempt_submitted_pair,unique,where:status = 'submitted'"`
	PostingID int    `gorm:"index:idx_attempt_submitted_pair,unique"`
	SessionID string `gorm:"index"`

	Site            string `gorm:"index"`
	Status          ApplicationStatus
	ResumeVariantID string
	ResumePath      string
	MatchTags       string

	RetryCount  int
	LastRetryAt *time.Time

	ErrorMessage   string
	ScreenshotPath string

	AppliedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a ApplicationAttempt) Tags() []string {
	return splitTags(a.MatchTags)
}

func splitTags(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

// JoinTags is the inverse of Tags, used when persisting scorer output.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}
