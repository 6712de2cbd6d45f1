package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/awaizkhanmd/Automation/internal/browser"
	"github.com/awaizkhanmd/Automation/internal/clients/gemini"
	"github.com/awaizkhanmd/Automation/internal/config"
	"github.com/awaizkhanmd/Automation/internal/coordinator"
	"github.com/awaizkhanmd/Automation/internal/documents"
	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/awaizkhanmd/Automation/internal/feedback"
	"github.com/awaizkhanmd/Automation/internal/logger"
	"github.com/awaizkhanmd/Automation/internal/metrics"
	"github.com/awaizkhanmd/Automation/internal/planner"
	"github.com/awaizkhanmd/Automation/internal/repositories"
	"github.com/awaizkhanmd/Automation/internal/scoring"
	"github.com/awaizkhanmd/Automation/internal/sites"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	metricsAddr     string
	sitesOverride   []string
	maxApplications int
	dryRun          bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Plan and execute one application session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true
		return runSession()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":2112", "prometheus metrics listen address")
	runCmd.Flags().StringSliceVar(&sitesOverride, "sites", nil, "restrict the session to these sites")
	runCmd.Flags().IntVar(&maxApplications, "max-applications", 0, "override the profile's daily application cap")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan only, without launching a browser")
}

func runSession() error {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := getConfig()
	if err != nil {
		return err
	}

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer(metricsAddr)

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		return errors.Wrap(err, "can't create db context")
	}
	defer dbContext.Close()

	if err = dbContext.Migrate(); err != nil {
		return errors.Wrap(err, "can't migrate db context")
	}

	postings := repositories.NewPostingsRepository(dbContext.DB)
	attempts := repositories.NewAttemptsRepository(dbContext.DB)
	sessions := repositories.NewSessionsRepository(dbContext.DB)
	errorRecords := repositories.NewErrorsRepository(dbContext.DB)
	weights := repositories.NewWeightsRepository(dbContext.DB)
	progress := repositories.NewDataRepository(dbContext.DB)

	profile := cfg.Profile.ToModel()
	if len(sitesOverride) > 0 {
		profile.PreferredSites = sitesOverride
	}
	if maxApplications > 0 {
		profile.MaxApplicationsPerDay = maxApplications
	}

	targetSites := lo.Filter(profile.PreferredSites, func(site string, _ int) bool {
		if !sites.Supported(site) {
			log.Warnf("preferred site %v has no automator, skipping", site)
			return false
		}
		return true
	})
	if len(targetSites) == 0 {
		return errors.New("none of the preferred sites is supported")
	}

	candidates, err := postings.GetActive(ctx, targetSites)
	if err != nil {
		return errors.Wrap(err, "can't load active postings")
	}

	candidates, err = scoreCandidates(ctx, cfg, postings, profile, candidates)
	if err != nil {
		return err
	}

	plans, err := buildPlans(ctx, cfg, attempts, weights, profile, candidates)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		log.Info("nothing to do: no plans within budget")
		return nil
	}

	if dryRun {
		for _, plan := range plans {
			log.Infof("would apply to %v/%v (%v, priority %.3f, resume %v)",
				plan.Posting.Site, plan.Posting.ExternalID, plan.Posting.Title,
				plan.PriorityScore, plan.ResumeVariantID)
		}
		return nil
	}

	engine, err := browser.NewEngine(cfg.Automation.Headless)
	if err != nil {
		return errors.Wrap(err, "can't start browser engine")
	}
	defer engine.Close()

	bus := EventBus.New()
	recorder := feedback.NewRecorder(errorRecords, attempts)
	if err = recorder.Subscribe(bus); err != nil {
		return errors.Wrap(err, "can't subscribe outcome recorder")
	}

	cleaner, err := feedback.NewHistoryCleaner(attempts, errorRecords, cfg.Planner.HistoryWindowDays)
	if err != nil {
		return errors.Wrap(err, "can't create history cleaner")
	}
	defer cleaner.Stop()

	runner := coordinator.NewBrowserRunner(engine, progress, cfg.Automation)
	coord := coordinator.NewCoordinator(attempts, sessions, runner, bus,
		cfg.Automation.Concurrency, cfg.Automation.BreakerThreshold)

	session, err := coord.Run(ctx, profile, plans)
	if err != nil {
		return errors.Wrap(err, "session failed to run")
	}

	// Weights adapt between sessions, never during one.
	updater := feedback.NewWeightUpdater(attempts, weights, cfg.Planner)
	if _, err = updater.Update(context.WithoutCancel(ctx)); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("weight update failed: %v", err)
	}

	if session.Status == models.SessionFailed {
		return errors.Errorf("session %v failed: %v", session.ID, session.Notes)
	}
	return nil
}

func buildPlans(ctx context.Context, cfg *config.Config, attempts *repositories.Attempts,
	weights *repositories.Weights, profile models.UserProfile,
	candidates []models.JobPosting) ([]models.ApplicationPlan, error) {

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todaySubmitted, err := attempts.CountSubmittedSince(ctx, profile.ID, midnight)
	if err != nil {
		return nil, errors.Wrap(err, "can't count today's submissions")
	}

	snapshot, err := weights.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "can't load site weights")
	}

	stats := feedback.NewVariantStatsSource(attempts, cfg.Planner)
	selector := documents.NewSelector(cfg.Resumes, stats)
	p := planner.NewPlanner(attempts, selector, cfg.Planner.MinScore)

	return p.Plan(ctx, candidates, profile, int(todaySubmitted), snapshot)
}

// scoreCandidates fills in missing match scores. A scoring outage leaves
// the posting at score zero; the planner filters it out this session.
func scoreCandidates(ctx context.Context, cfg *config.Config, postings *repositories.Postings,
	profile models.UserProfile, candidates []models.JobPosting) ([]models.JobPosting, error) {

	unscored := lo.CountBy(candidates, func(posting models.JobPosting) bool {
		return posting.MatchScore == 0 && posting.MatchTags == ""
	})
	if unscored == 0 {
		return candidates, nil
	}

	aiClient, err := gemini.NewClient(ctx, cfg.Scoring.AIKey, gemini.Model15Flash)
	if err != nil {
		return nil, errors.Wrap(err, "can't create AI client")
	}
	defer aiClient.Close()

	if cfg.Scoring.AiMaxRequestsPerMinute > 0 {
		aiClient.SetMinuteRateLimit(cfg.Scoring.AiMaxRequestsPerMinute)
	}
	if cfg.Scoring.AiMaxRequestsPerDay > 0 {
		aiClient.SetDayRateLimit(cfg.Scoring.AiMaxRequestsPerDay)
	}

	scorer := scoring.NewScorer(aiClient, cfg.Scoring.Timeout())

	for i := range candidates {
		if candidates[i].MatchScore != 0 || candidates[i].MatchTags != "" {
			continue
		}

		result, err := scorer.Score(ctx, profile, candidates[i])
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeScoring).
				Warnf("posting %v/%v left unscored: %v", candidates[i].Site, candidates[i].ExternalID, err)
			continue
		}

		if err = postings.UpdateScore(ctx, candidates[i].ID, result.Score, result.Tags); err != nil {
			return nil, errors.Wrap(err, "can't persist match score")
		}
		candidates[i].MatchScore = result.Score
		candidates[i].MatchTags = models.JoinTags(result.Tags)
	}
	return candidates, nil
}
