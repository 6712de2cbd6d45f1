package feedback

import (
	"context"
	"sort"
	"time"

	"github.com/awaizkhanmd/Automation/internal/config"
	"github.com/awaizkhanmd/Automation/internal/domain/models"
)

// VariantStatsSource derives per (resume variant, tag) success counts
// from the trailing attempt history. Nothing is cached: the window moves
// with every call.
type VariantStatsSource struct {
	attempts attemptHistory
	cfg      config.PlannerConfig
}

func NewVariantStatsSource(attempts attemptHistory, cfg config.PlannerConfig) *VariantStatsSource {
	return &VariantStatsSource{attempts: attempts, cfg: cfg}
}

func (s *VariantStatsSource) VariantStats(ctx context.Context) ([]models.VariantStat, error) {

	since := time.Now().AddDate(0, 0, -s.cfg.HistoryWindowDays)
	recent, err := s.attempts.RecentTerminal(ctx, since, s.cfg.HistoryWindowAttempts)
	if err != nil {
		return nil, err
	}

	type key struct{ variant, tag string }
	tallies := map[key]*models.VariantStat{}

	for _, attempt := range recent {
		if attempt.Status == models.StatusDuplicate || attempt.ResumeVariantID == "" {
			continue
		}
		for _, tag := range attempt.Tags() {
			k := key{attempt.ResumeVariantID, tag}
			stat, ok := tallies[k]
			if !ok {
				stat = &models.VariantStat{VariantID: attempt.ResumeVariantID, Tag: tag}
				tallies[k] = stat
			}
			stat.Attempts++
			if attempt.Status.Succeeded() {
				stat.Successes++
			}
		}
	}

	stats := make([]models.VariantStat, 0, len(tallies))
	for _, stat := range tallies {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].VariantID != stats[j].VariantID {
			return stats[i].VariantID < stats[j].VariantID
		}
		return stats[i].Tag < stats[j].Tag
	})
	return stats, nil
}
