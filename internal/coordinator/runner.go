package coordinator

import (
	"context"
	"path/filepath"

	"github.com/awaizkhanmd/Automation/internal/automation"
	"github.com/awaizkhanmd/Automation/internal/browser"
	"github.com/awaizkhanmd/Automation/internal/config"
	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/awaizkhanmd/Automation/internal/repositories"
	"github.com/awaizkhanmd/Automation/internal/sites"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrEngineLost means the browser process is gone. It is fatal to the
// session; every other failure is contained inside the attempt outcome.
var ErrEngineLost = errors.New("browser engine lost")

// BrowserRunner executes one attempt inside a fresh, isolated browser
// context.
type BrowserRunner struct {
	engine   *browser.Engine
	progress *repositories.Data
	cfg      config.AutomationConfig
}

func NewBrowserRunner(engine *browser.Engine, progress *repositories.Data, cfg config.AutomationConfig) *BrowserRunner {
	return &BrowserRunner{engine: engine, progress: progress, cfg: cfg}
}

func (r *BrowserRunner) RunAttempt(ctx context.Context, sessionID string, plan models.ApplicationPlan,
	profile models.UserProfile) (automation.Outcome, error) {

	if !r.engine.Healthy() {
		return automation.Outcome{}, ErrEngineLost
	}

	site := plan.Posting.Site

	shots, err := browser.NewScreenshotter(r.cfg.ArtifactDir, sessionID)
	if err != nil {
		return failedOutcome(site, errors.Wrap(err, "artifact dir unavailable")), nil
	}

	browserCtx, err := r.engine.NewContext(r.cookieFile(profile, site))
	if err != nil {
		if !r.engine.Healthy() {
			return automation.Outcome{}, ErrEngineLost
		}
		return failedOutcome(site, err), nil
	}
	defer func() {
		if err := browserCtx.Close(); err != nil {
			log.Warnf("failed to close browser context: %v", err)
		}
	}()

	page, err := browserCtx.NewPage()
	if err != nil {
		if !r.engine.Healthy() {
			return automation.Outcome{}, ErrEngineLost
		}
		return failedOutcome(site, err), nil
	}

	automator, err := sites.New(site, page, shots, r.cfg.NavigationTimeout())
	if err != nil {
		return failedOutcome(site, err), nil
	}

	machine := automation.NewMachine(automator, r.progress, automation.Config{
		MaxRetries:    r.cfg.MaxRetries,
		Backoff:       automation.Backoff{Base: r.cfg.BaseDelay(), Max: r.cfg.MaxDelay()},
		VerifyTimeout: r.cfg.VerifyTimeout(),
	})

	return machine.Run(ctx, plan, profile), nil
}

// cookieFile resolves the profile's cookie reference for a site. Missing
// reference means an unauthenticated context.
func (r *BrowserRunner) cookieFile(profile models.UserProfile, site string) string {
	ref, ok := profile.CredentialsRef[site]
	if !ok || ref == "" {
		return ""
	}
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(r.cfg.CookieDir, ref)
}

func failedOutcome(site string, err error) automation.Outcome {
	classified := automation.Classify(err)
	return automation.Outcome{
		Status:     models.StatusFailed,
		FinalState: automation.StateFailed,
		Error: &models.ErrorRecord{
			ErrorType: "attempt_setup",
			Category:  classified.Category,
			Site:      site,
			Message:   classified.Error(),
		},
	}
}
