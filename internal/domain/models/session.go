package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionCancelled SessionStatus = "cancelled"
)

// AutomationSession is one coordinator run. Counters are mutated only by
// the coordinator and always equal the sum of attempt outcomes recorded
// under this session id.
type AutomationSession struct {
	ID        string `gorm:"primaryKey"`
	ProfileID string `gorm:"index"`
	Status    SessionStatus

	TargetSites string
	MaxTarget   int

	StartedAt time.Time
	EndedAt   *time.Time

	Attempted  int
	Successful int
	Failed     int
	Duplicate  int
	Manual     int

	// PerSite holds per-site attempt counts as "site=count" pairs, the
	// same comma-joined encoding used for tags.
	PerSite string

	AverageAttemptSeconds float64
	TotalErrors           int
	CriticalErrors        int

	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s AutomationSession) Duration() time.Duration {
	if s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// EncodePerSite renders per-site attempt counts deterministically, sites
// in lexical order.
func EncodePerSite(counts map[string]int) string {
	sites := make([]string, 0, len(counts))
	for site := range counts {
		sites = append(sites, site)
	}
	sort.Strings(sites)

	pairs := make([]string, 0, len(sites))
	for _, site := range sites {
		pairs = append(pairs, fmt.Sprintf("%s=%d", site, counts[site]))
	}
	return strings.Join(pairs, ",")
}
