package feedback

import (
	"context"
	"time"

	"github.com/awaizkhanmd/Automation/internal/config"
	"github.com/awaizkhanmd/Automation/internal/domain/models"
	log "github.com/sirupsen/logrus"
)

type attemptHistory interface {
	RecentTerminal(ctx context.Context, since time.Time, limit int) ([]models.ApplicationAttempt, error)
}

type weightsRepository interface {
	GetAll(ctx context.Context) (map[string]float64, error)
	Save(ctx context.Context, site string, weight float64) error
}

// WeightUpdater adjusts site weights from recent outcomes. It runs
// between sessions only: a running session always sees one immutable
// weights snapshot.
type WeightUpdater struct {
	attempts attemptHistory
	weights  weightsRepository
	cfg      config.PlannerConfig
}

func NewWeightUpdater(attempts attemptHistory, weights weightsRepository, cfg config.PlannerConfig) *WeightUpdater {
	return &WeightUpdater{attempts: attempts, weights: weights, cfg: cfg}
}

// Update recomputes and persists weights for every site with history in
// the trailing window, then returns the full weight table.
func (u *WeightUpdater) Update(ctx context.Context) (map[string]float64, error) {

	since := time.Now().AddDate(0, 0, -u.cfg.HistoryWindowDays)
	recent, err := u.attempts.RecentTerminal(ctx, since, u.cfg.HistoryWindowAttempts)
	if err != nil {
		return nil, err
	}

	current, err := u.weights.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	type tally struct{ attempts, successes int }
	perSite := map[string]*tally{}
	for _, attempt := range recent {
		// Duplicates say nothing about the site's success rate.
		if attempt.Status == models.StatusDuplicate {
			continue
		}
		t, ok := perSite[attempt.Site]
		if !ok {
			t = &tally{}
			perSite[attempt.Site] = t
		}
		t.attempts++
		if attempt.Status.Succeeded() {
			t.successes++
		}
	}

	for site, t := range perSite {
		if t.attempts == 0 {
			continue
		}

		old, ok := current[site]
		if !ok {
			old = 1.0
		}
		successRate := float64(t.successes) / float64(t.attempts)
		updated := clamp(adjust(old, successRate, u.cfg.LearningRate, u.cfg.TargetRate),
			u.cfg.MinWeight, u.cfg.MaxWeight)

		if err = u.weights.Save(ctx, site, updated); err != nil {
			return nil, err
		}
		current[site] = updated
		log.Infof("site %v weight %.3f -> %.3f (success rate %.2f over %d attempts)",
			site, old, updated, successRate, t.attempts)
	}

	return current, nil
}

// adjust nudges the weight toward the site's performance relative to the
// target success rate.
func adjust(weight, successRate, learningRate, targetRate float64) float64 {
	return weight * (1 + learningRate*(successRate-targetRate))
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
