package models

import "time"

// SiteWeight is the priority multiplier for one site, written only by the
// feedback loop between sessions. Starts at 1.0 for unseen sites.
type SiteWeight struct {
	Site      string `gorm:"primaryKey"`
	Weight    float64
	UpdatedAt time.Time
}

// VariantStat is a computed success count for one (resume variant,
// requirement tag) pair over the trailing history window. It is derived
// from attempt history, not stored.
type VariantStat struct {
	VariantID string
	Tag       string
	Attempts  int
	Successes int
}

func (s VariantStat) SuccessRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Attempts)
}
