package intake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/awaizkhanmd/Automation/internal/domain/models"
	log "github.com/sirupsen/logrus"
)

// RawPosting is what the scraping collaborator hands over. The shape
// differs per site; unknown fields arrive in Extra and are ignored.
type RawPosting struct {
	Site       string
	ExternalID string
	URL        string
	Title      string
	Company    string
	Location   string
	Text       string
	PostedDate time.Time
	Extra      map[string]any
}

// NormalizationError marks a raw record that cannot become a canonical
// posting. Callers skip the record; it is never fatal to the pipeline.
type NormalizationError struct {
	Site    string
	Missing []string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("raw posting from %q is missing mandatory fields: %s", e.Site, strings.Join(e.Missing, ", "))
}

type postingRepository interface {
	FindByExternalID(ctx context.Context, site, externalID string) (*models.JobPosting, error)
	Create(ctx context.Context, posting *models.JobPosting) error
	Refresh(ctx context.Context, posting models.JobPosting) error
}

// Normalizer converts raw postings into canonical JobPosting records and
// deduplicates them by (site, external id).
type Normalizer struct {
	postings postingRepository
}

func NewNormalizer(postings postingRepository) *Normalizer {
	return &Normalizer{postings: postings}
}

// Normalize upserts one raw record. Returns the canonical posting and
// whether anything changed: a re-scrape with an unchanged content hash is
// a no-op.
func (n *Normalizer) Normalize(ctx context.Context, raw RawPosting) (*models.JobPosting, bool, error) {

	if err := validate(raw); err != nil {
		return nil, false, err
	}

	canonical := models.JobPosting{
		Site:         strings.ToLower(strings.TrimSpace(raw.Site)),
		ExternalID:   strings.TrimSpace(raw.ExternalID),
		URL:          strings.TrimSpace(raw.URL),
		Title:        strings.TrimSpace(raw.Title),
		Company:      strings.TrimSpace(raw.Company),
		Location:     strings.TrimSpace(raw.Location),
		Requirements: strings.TrimSpace(raw.Text),
		PostedDate:   raw.PostedDate,
		IsActive:     true,
	}
	canonical.ContentHash = contentHash(canonical)

	existing, err := n.postings.FindByExternalID(ctx, canonical.Site, canonical.ExternalID)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		if err = n.postings.Create(ctx, &canonical); err != nil {
			return nil, false, err
		}
		log.Debugf("normalized new posting %v/%v: %v at %v",
			canonical.Site, canonical.ExternalID, canonical.Title, canonical.Company)
		return &canonical, true, nil
	}

	if existing.ContentHash == canonical.ContentHash {
		return existing, false, nil
	}

	canonical.ID = existing.ID
	canonical.MatchScore = existing.MatchScore
	canonical.MatchTags = existing.MatchTags
	if err = n.postings.Refresh(ctx, canonical); err != nil {
		return nil, false, err
	}
	return &canonical, true, nil
}

// NormalizeBatch runs Normalize over a scrape batch, skipping and logging
// malformed records.
func (n *Normalizer) NormalizeBatch(ctx context.Context, raws []RawPosting) []models.JobPosting {

	var normalized []models.JobPosting
	for _, raw := range raws {
		posting, _, err := n.Normalize(ctx, raw)
		if err != nil {
			log.Warnf("skipping raw posting: %v", err)
			continue
		}
		normalized = append(normalized, *posting)
	}
	return normalized
}

func validate(raw RawPosting) error {
	var missing []string

	if strings.TrimSpace(raw.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(raw.Company) == "" {
		missing = append(missing, "company")
	}
	if strings.TrimSpace(raw.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(raw.Site) == "" {
		missing = append(missing, "site")
	}
	if strings.TrimSpace(raw.ExternalID) == "" {
		missing = append(missing, "external_id")
	}

	if len(missing) > 0 {
		return &NormalizationError{Site: raw.Site, Missing: missing}
	}
	return nil
}

func contentHash(posting models.JobPosting) string {
	sum := sha256.Sum256([]byte(posting.Title + "|" + posting.Company + "|" + posting.Requirements))
	return hex.EncodeToString(sum[:])
}
