package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/awaizkhanmd/Automation/internal/metrics"
	log "github.com/sirupsen/logrus"
)

// Automator is the per-site capability surface the state machine drives.
// One implementation exists per supported site, selected by the registry.
type Automator interface {
	Site() string
	Navigate(ctx context.Context, url string) error
	AlreadyApplied(ctx context.Context) (bool, error)
	DetectChallenge(ctx context.Context) (bool, error)
	// DetectForm locates the application form; useFallback switches to
	// the site's alternate selector set.
	DetectForm(ctx context.Context, useFallback bool) (Form, error)
	FillForm(ctx context.Context, form Form, values FormValues) error
	UploadResume(ctx context.Context, resumePath string) error
	Submit(ctx context.Context, form Form) error
	// ConfirmSubmission waits for an explicit post-submit signal (URL
	// change, confirmation text or receipt id) and returns it.
	ConfirmSubmission(ctx context.Context) (string, error)
	Screenshot(name string) string
	CurrentURL() string
	PageTitle() string
}

type progressStore interface {
	Save(ctx context.Context, id string, data []byte) error
	Load(ctx context.Context, id string) ([]byte, error)
	Remove(ctx context.Context, id string) error
}

// Config is the retry and verification policy for one attempt.
type Config struct {
	MaxRetries    int
	Backoff       Backoff
	VerifyTimeout time.Duration
}

// Outcome is everything the coordinator needs to persist after one
// attempt run.
type Outcome struct {
	Status         models.ApplicationStatus
	FinalState     State
	RetryCount     int
	ReceiptID      string
	ScreenshotPath string
	Error          *models.ErrorRecord
}

type progress struct {
	State   State     `json:"state"`
	SavedAt time.Time `json:"saved_at"`
}

// Machine executes one application attempt as an explicit state machine.
// Retry policy and suspension points are data (Config, the transition
// sequence), independently testable without a real browser.
type Machine struct {
	site     Automator
	store    progressStore
	cfg      Config
	sleep    func(time.Duration)
	state    State
	retries  int
	resumeAt State
}

func NewMachine(site Automator, store progressStore, cfg Config) *Machine {
	return &Machine{
		site:  site,
		store: store,
		cfg:   cfg,
		sleep: time.Sleep,
		state: StateInit,
	}
}

// Run drives the attempt to a terminal (or parked) state. Attempt-level
// failures are captured in the outcome, never returned: a machine error
// must not abort the session.
func (m *Machine) Run(ctx context.Context, plan models.ApplicationPlan, profile models.UserProfile) Outcome {

	m.loadProgress(ctx, plan)

	// A parked attempt that had already submitted must never submit
	// again; it goes straight to verification.
	verifyOnly := m.resumeAt.Reached(StateSubmitted)

	var form Form
	values := BuildValues(profile, plan)

	steps := []struct {
		name string
		to   State
		skip func() bool
		run  func(ctx context.Context) error
	}{
		{
			name: "navigate",
			to:   StateNavigating,
			run: func(ctx context.Context) error {
				if err := m.navigateWithRetry(ctx, plan.Posting.URL); err != nil {
					return err
				}
				// Duplicate detection belongs right after landing on the
				// posting; later the page may report our own submission.
				// Same reason it is skipped on a resumed verification.
				if !verifyOnly {
					if applied, err := m.site.AlreadyApplied(ctx); err == nil && applied {
						return DuplicateDetected()
					}
				}
				return nil
			},
		},
		{
			name: "detect_form",
			to:   StateFormDetected,
			skip: func() bool { return verifyOnly },
			run: func(ctx context.Context) error {
				var err error
				form, err = m.detectFormWithFallback(ctx)
				return err
			},
		},
		{
			name: "fill_form",
			to:   StateFormFilled,
			skip: func() bool { return verifyOnly },
			run: func(ctx context.Context) error {
				if err := form.Validate(values); err != nil {
					return ValidationError(err)
				}
				return m.site.FillForm(ctx, form, values)
			},
		},
		{
			name: "upload_document",
			to:   StateDocumentUploaded,
			// Pass-through when the site takes no file upload.
			skip: func() bool { return verifyOnly || !form.RequiresUpload },
			run: func(ctx context.Context) error {
				return m.site.UploadResume(ctx, plan.ResumePath)
			},
		},
		{
			name: "submit",
			to:   StateSubmitted,
			skip: func() bool { return verifyOnly },
			run: func(ctx context.Context) error {
				return m.site.Submit(ctx, form)
			},
		},
	}

	for _, step := range steps {
		if step.skip != nil && step.skip() {
			m.state = step.to
			continue
		}
		if outcome, done := m.transition(ctx, plan, step.name, step.to, step.run); done {
			return outcome
		}
	}

	return m.verify(ctx, plan)
}

// transition runs one step, advancing the state on success. On failure
// it classifies the error and produces the terminal outcome.
func (m *Machine) transition(ctx context.Context, plan models.ApplicationPlan, name string, to State,
	run func(ctx context.Context) error) (Outcome, bool) {

	// Cooperative cancellation: finish the in-flight transition, never
	// start the next one.
	if err := ctx.Err(); err != nil {
		return m.fail(plan, Classify(err), false), true
	}

	start := time.Now()
	err := run(ctx)
	metrics.AttemptStepDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err == nil {
		m.state = to
		return Outcome{}, false
	}

	classified := Classify(err)
	switch classified.Category {
	case models.CategoryDuplicate:
		return m.duplicate(), true
	case models.CategoryManualChallenge:
		return m.park(ctx, plan, classified), true
	default:
		// A challenge can interrupt any state, not just navigation. A
		// step that broke because a CAPTCHA covered the page parks the
		// attempt instead of failing it.
		if challenged, probeErr := m.site.DetectChallenge(ctx); probeErr == nil && challenged {
			return m.park(ctx, plan, ChallengeDetected(name)), true
		}
		return m.fail(plan, classified, false), true
	}
}

func (m *Machine) navigateWithRetry(ctx context.Context, url string) error {

	for attempt := 0; ; attempt++ {
		err := m.site.Navigate(ctx, url)
		if err == nil {
			if challenged, challengeErr := m.site.DetectChallenge(ctx); challengeErr == nil && challenged {
				return ChallengeDetected("post-navigation")
			}
			return nil
		}

		classified := Classify(err)
		if !classified.Retryable || attempt >= m.cfg.MaxRetries {
			return classified
		}

		m.retries++
		delay := m.cfg.Backoff.Delay(attempt)
		log.Warnf("%v: navigation failed (%v), retry %d/%d in %v",
			m.site.Site(), classified.Category, m.retries, m.cfg.MaxRetries, delay)
		m.sleep(delay)
	}
}

func (m *Machine) detectFormWithFallback(ctx context.Context) (Form, error) {

	form, err := m.site.DetectForm(ctx, false)
	if err == nil {
		return form, nil
	}

	classified := Classify(err)
	if classified.Category != models.CategoryElementNotFound {
		return Form{}, classified
	}

	// One pass with the site's alternate detection strategy, then fatal.
	// An alternate strategy is not a retry: the recorded retry count
	// stays bounded by the navigation retry budget.
	log.Warnf("%v: form detection failed, retrying with fallback selectors", m.site.Site())
	form, err = m.site.DetectForm(ctx, true)
	if err != nil {
		return Form{}, Classify(err)
	}
	return form, nil
}

// verify requires an explicit confirmation signal. Missing signal means
// one re-check (never a resubmission) before the attempt is failed as
// unverified.
func (m *Machine) verify(ctx context.Context, plan models.ApplicationPlan) Outcome {

	verifyCtx, cancel := context.WithTimeout(ctx, m.cfg.VerifyTimeout)
	defer cancel()

	start := time.Now()
	receipt, err := m.site.ConfirmSubmission(verifyCtx)
	metrics.AttemptStepDuration.WithLabelValues("verify").Observe(time.Since(start).Seconds())

	if err != nil {
		// Persist submission before the re-check: a crash here must not
		// lead to a resubmission later.
		m.saveProgress(ctx, plan)

		recheckCtx, recheckCancel := context.WithTimeout(ctx, m.cfg.VerifyTimeout)
		defer recheckCancel()
		receipt, err = m.site.ConfirmSubmission(recheckCtx)
		if err != nil {
			outcome := m.fail(plan, Unverified(err), true)
			return outcome
		}
	}

	m.state = StateVerified
	m.clearProgress(ctx, plan)

	return Outcome{
		Status:         models.StatusSubmitted,
		FinalState:     StateVerified,
		RetryCount:     m.retries,
		ReceiptID:      receipt,
		ScreenshotPath: m.site.Screenshot("verified"),
	}
}

func (m *Machine) duplicate() Outcome {
	return Outcome{
		Status:         models.StatusDuplicate,
		FinalState:     StateDuplicate,
		RetryCount:     m.retries,
		ScreenshotPath: m.site.Screenshot("duplicate"),
	}
}

// park saves the last successful state and hands the attempt to a human.
func (m *Machine) park(ctx context.Context, plan models.ApplicationPlan, stepErr *StepError) Outcome {

	m.saveProgress(ctx, plan)
	shot := m.site.Screenshot("manual_challenge")

	return Outcome{
		Status:         models.StatusManual,
		FinalState:     StateManual,
		RetryCount:     m.retries,
		ScreenshotPath: shot,
		Error: &models.ErrorRecord{
			ErrorType:      "manual_challenge",
			Category:       stepErr.Category,
			Site:           m.site.Site(),
			Message:        stepErr.Error(),
			URL:            m.site.CurrentURL(),
			PageTitle:      m.site.PageTitle(),
			ScreenshotPath: shot,
		},
	}
}

func (m *Machine) fail(plan models.ApplicationPlan, stepErr *StepError, recoveryAttempted bool) Outcome {

	shot := m.site.Screenshot("failed_" + string(m.state))

	return Outcome{
		Status:         models.StatusFailed,
		FinalState:     StateFailed,
		RetryCount:     m.retries,
		ScreenshotPath: shot,
		Error: &models.ErrorRecord{
			ErrorType:         fmt.Sprintf("%s_at_%s", stepErr.Category, m.state),
			Category:          stepErr.Category,
			Site:              m.site.Site(),
			Message:           stepErr.Error(),
			URL:               m.site.CurrentURL(),
			PageTitle:         m.site.PageTitle(),
			FormState:         string(m.state),
			RecoveryAttempted: recoveryAttempted,
			ScreenshotPath:    shot,
		},
	}
}

func progressID(plan models.ApplicationPlan) string {
	return fmt.Sprintf("attempt-progress:%s:%d", plan.ProfileID, plan.Posting.ID)
}

func (m *Machine) loadProgress(ctx context.Context, plan models.ApplicationPlan) {
	data, err := m.store.Load(ctx, progressID(plan))
	if err != nil || data == nil {
		return
	}

	var saved progress
	if err = json.Unmarshal(data, &saved); err != nil {
		log.Errorf("failed to decode attempt progress: %v", err)
		return
	}
	m.resumeAt = saved.State
	log.Infof("%v: resuming attempt for posting %d from state %v", m.site.Site(), plan.Posting.ID, saved.State)
}

func (m *Machine) saveProgress(ctx context.Context, plan models.ApplicationPlan) {
	data, err := json.Marshal(progress{State: m.state, SavedAt: time.Now()})
	if err == nil {
		err = m.store.Save(ctx, progressID(plan), data)
	}
	if err != nil {
		log.Errorf("failed to save attempt progress: %v", err)
	}
}

func (m *Machine) clearProgress(ctx context.Context, plan models.ApplicationPlan) {
	if err := m.store.Remove(ctx, progressID(plan)); err != nil {
		log.Errorf("failed to clear attempt progress: %v", err)
	}
}
