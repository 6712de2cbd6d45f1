package documents

import (
	"context"

	"github.com/awaizkhanmd/Automation/internal/config"
	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/pkg/errors"
)

// Variant is one prepared resume file the planner can attach to a plan.
type Variant struct {
	ID   string
	Path string
	// Affinity multiplies into the plan priority: 1.0 without history,
	// otherwise shifted by the variant's historical success rate for the
	// job's requirement tags.
	Affinity float64
}

type statsSource interface {
	VariantStats(ctx context.Context) ([]models.VariantStat, error)
}

// Selector picks a resume variant per job by the highest historical
// success rate for the job's requirement tags. Resume files are prepared
// outside this system; the selector only looks them up.
type Selector struct {
	variants  []config.ResumeVariant
	defaultID string
	stats     statsSource
}

func NewSelector(cfg config.ResumesConfig, stats statsSource) *Selector {
	return &Selector{
		variants:  cfg.Variants,
		defaultID: cfg.DefaultVariant,
		stats:     stats,
	}
}

// Select returns the variant with the best historical success rate over
// the given tags, falling back to the default variant when no variant
// has history for them.
func (s *Selector) Select(ctx context.Context, tags []string) (Variant, error) {

	stats, err := s.stats.VariantStats(ctx)
	if err != nil {
		return Variant{}, errors.Wrap(err, "failed to load variant stats")
	}

	best, bestRate, found := "", -1.0, false
	for _, variant := range s.variants {
		rate, has := rateForTags(stats, variant.ID, tags)
		if has && rate > bestRate {
			best, bestRate, found = variant.ID, rate, true
		}
	}

	if !found {
		return s.variant(s.defaultID, 1.0)
	}
	return s.variant(best, 0.5+bestRate)
}

func (s *Selector) variant(id string, affinity float64) (Variant, error) {
	for _, variant := range s.variants {
		if variant.ID == id {
			return Variant{ID: variant.ID, Path: variant.Path, Affinity: affinity}, nil
		}
	}
	return Variant{}, errors.Errorf("resume variant %q is not declared", id)
}

// rateForTags averages the variant's success rate across the tags it has
// history for.
func rateForTags(stats []models.VariantStat, variantID string, tags []string) (float64, bool) {

	var sum float64
	var matched int

	for _, tag := range tags {
		for _, stat := range stats {
			if stat.VariantID == variantID && stat.Tag == tag && stat.Attempts > 0 {
				sum += stat.SuccessRate()
				matched++
			}
		}
	}

	if matched == 0 {
		return 0, false
	}
	return sum / float64(matched), true
}
