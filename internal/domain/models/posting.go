package models

import "time"

// JobPosting is a discovered job listing. A posting is unique by
// (Site, ExternalID) and is never deleted, only deactivated.
type JobPosting struct {
	ID         int    `gorm:"primaryKey"`
	Site       string `gorm:"index:idx_posting_site_external,unique"`
	ExternalID string `gorm:"index:idx_posting_site_external,unique"`
	URL        string

	Title    string
	Company  string
	Location string

	Requirements string
	ContentHash  string

	// MatchScore is set by the scorer, in [0, 1]. Zero until scored.
	MatchScore float64
	MatchTags  string

	PostedDate   time.Time
	IsActive     bool `gorm:"default:true"`
	DiscoveredAt time.Time
	UpdatedAt    time.Time
}

// Tags returns the requirement tags extracted by the scorer.
func (p JobPosting) Tags() []string {
	return splitTags(p.MatchTags)
}
