package planner

import (
	"context"
	"sort"
	"time"

	"github.com/awaizkhanmd/Automation/internal/documents"
	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

type attemptRepository interface {
	AttemptedPostingIDs(ctx context.Context, profileID string) (map[int]bool, error)
}

type resumeSelector interface {
	Select(ctx context.Context, tags []string) (documents.Variant, error)
}

// Planner turns scored postings into an ordered, budgeted list of
// application plans. It never writes anything: persistence starts when
// the coordinator picks a plan up.
type Planner struct {
	attempts attemptRepository
	resumes  resumeSelector
	minScore float64
}

func NewPlanner(attempts attemptRepository, resumes resumeSelector, minScore float64) *Planner {
	return &Planner{
		attempts: attempts,
		resumes:  resumes,
		minScore: minScore,
	}
}

// Plan filters, prioritizes and truncates the candidate postings.
// Deterministic for identical inputs: same ordering and truncation every
// run. The weights snapshot is read-only for the whole session.
func (p *Planner) Plan(ctx context.Context, candidates []models.JobPosting, profile models.UserProfile,
	todaySubmitted int, weights map[string]float64) ([]models.ApplicationPlan, error) {

	remaining := profile.MaxApplicationsPerDay - todaySubmitted
	if remaining <= 0 {
		log.Infof("daily budget exhausted (%d submitted today), planning nothing", todaySubmitted)
		return nil, nil
	}

	attempted, err := p.attempts.AttemptedPostingIDs(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	eligible := lo.Filter(candidates, func(posting models.JobPosting, _ int) bool {
		return posting.IsActive &&
			posting.MatchScore >= p.minScore &&
			!attempted[posting.ID]
	})

	plans := make([]models.ApplicationPlan, 0, len(eligible))
	now := time.Now()

	for _, posting := range eligible {
		variant, err := p.resumes.Select(ctx, posting.Tags())
		if err != nil {
			log.Errorf("no resume variant for posting %v/%v: %v", posting.Site, posting.ExternalID, err)
			continue
		}

		plans = append(plans, models.ApplicationPlan{
			Posting:         posting,
			ProfileID:       profile.ID,
			ResumeVariantID: variant.ID,
			ResumePath:      variant.Path,
			PriorityScore:   posting.MatchScore * siteWeight(weights, posting.Site) * variant.Affinity,
			PlannedAt:       now,
		})
	}

	sort.SliceStable(plans, func(i, j int) bool {
		if plans[i].PriorityScore != plans[j].PriorityScore {
			return plans[i].PriorityScore > plans[j].PriorityScore
		}
		// Older postings first: assume deadline risk.
		if !plans[i].Posting.PostedDate.Equal(plans[j].Posting.PostedDate) {
			return plans[i].Posting.PostedDate.Before(plans[j].Posting.PostedDate)
		}
		return plans[i].Posting.ID < plans[j].Posting.ID
	})

	if len(plans) > remaining {
		plans = plans[:remaining]
	}

	log.Infof("planned %d of %d candidates (budget %d)", len(plans), len(candidates), remaining)
	return plans, nil
}

func siteWeight(weights map[string]float64, site string) float64 {
	if weight, ok := weights[site]; ok {
		return weight
	}
	return 1.0
}
