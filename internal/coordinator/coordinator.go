package coordinator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/awaizkhanmd/Automation/internal/automation"
	"github.com/awaizkhanmd/Automation/internal/domain/events"
	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/awaizkhanmd/Automation/internal/metrics"
	"github.com/google/uuid"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type attemptsRepository interface {
	Create(ctx context.Context, attempt *models.ApplicationAttempt) error
	Update(ctx context.Context, attempt models.ApplicationAttempt) error
	HasSubmitted(ctx context.Context, profileID string, postingID int) (bool, error)
	FindByProfileAndPosting(ctx context.Context, profileID string, postingID int) (*models.ApplicationAttempt, error)
}

type sessionsRepository interface {
	Create(ctx context.Context, session *models.AutomationSession) error
	Update(ctx context.Context, session models.AutomationSession) error
}

type attemptRunner interface {
	RunAttempt(ctx context.Context, sessionID string, plan models.ApplicationPlan,
		profile models.UserProfile) (automation.Outcome, error)
}

// Coordinator executes a plan list as one session: a bounded worker pool
// over a shared queue, per-site pacing, a per-site circuit breaker and
// persistent attempt records for every outcome.
type Coordinator struct {
	attempts attemptsRepository
	sessions sessionsRepository
	runner   attemptRunner
	bus      EventBus.Bus

	concurrency      int
	breakerThreshold int
}

func NewCoordinator(attempts attemptsRepository, sessions sessionsRepository, runner attemptRunner,
	bus EventBus.Bus, concurrency int, breakerThreshold int) *Coordinator {
	return &Coordinator{
		attempts:         attempts,
		sessions:         sessions,
		runner:           runner,
		bus:              bus,
		concurrency:      concurrency,
		breakerThreshold: breakerThreshold,
	}
}

// sessionState accumulates counters while workers run. All access goes
// through the mutex; the persisted session is derived from it once.
type sessionState struct {
	mu sync.Mutex

	attempted  int
	successful int
	failed     int
	duplicate  int
	manual     int
	skipped    int

	perSite       map[string]int
	totalErrors   int
	criticalCount int
	totalSeconds  float64

	engineLost bool
}

// Run executes every plan and returns the finished session record. The
// returned error covers session bookkeeping only; attempt failures are
// reflected in the session counters.
func (c *Coordinator) Run(ctx context.Context, profile models.UserProfile,
	plans []models.ApplicationPlan) (*models.AutomationSession, error) {

	session := &models.AutomationSession{
		ID:        uuid.NewString(),
		ProfileID: profile.ID,
		TargetSites: strings.Join(lo.Uniq(lo.Map(plans, func(plan models.ApplicationPlan, _ int) string {
			return plan.Posting.Site
		})), ","),
		MaxTarget: len(plans),
	}
	if err := c.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	log.Infof("session %v started: %d planned attempts, concurrency %d", session.ID, len(plans), c.concurrency)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := &sessionState{perSite: map[string]int{}}
	siteBreaker := newBreaker(c.breakerThreshold)
	limiters := newLimiters(profile)

	queue := make(chan models.ApplicationPlan)
	go func() {
		defer close(queue)
		for _, plan := range plans {
			select {
			case queue <- plan:
			case <-runCtx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for worker := 0; worker < c.concurrency; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for plan := range queue {
				c.process(runCtx, cancel, session.ID, profile, plan, state, siteBreaker, limiters)
			}
		}()
	}
	wg.Wait()

	return c.finish(ctx, session, state)
}

func (c *Coordinator) process(ctx context.Context, cancel context.CancelFunc, sessionID string,
	profile models.UserProfile, plan models.ApplicationPlan, state *sessionState,
	siteBreaker *breaker, limiters *siteLimiters) {

	site := plan.Posting.Site

	if ctx.Err() != nil {
		state.skip()
		return
	}
	if !siteBreaker.Allow(site) {
		log.Warnf("site %v suspended by circuit breaker, skipping posting %d", site, plan.Posting.ID)
		state.skip()
		return
	}

	// Duplicate guard before any browser work. The record still gets
	// written so the planner never re-plans this pair.
	submitted, err := c.attempts.HasSubmitted(ctx, profile.ID, plan.Posting.ID)
	if err != nil {
		log.WithField("error_type", "db").Errorf("duplicate pre-check failed: %v", err)
		state.skip()
		return
	}
	if submitted {
		c.recordDuplicate(ctx, sessionID, plan, state)
		return
	}

	if err = limiters.Wait(ctx, site); err != nil {
		state.skip()
		return
	}

	attempt := models.ApplicationAttempt{
		ProfileID:       profile.ID,
		PostingID:       plan.Posting.ID,
		SessionID:       sessionID,
		Site:            site,
		Status:          models.StatusPending,
		ResumeVariantID: plan.ResumeVariantID,
		ResumePath:      plan.ResumePath,
		MatchTags:       models.JoinTags(plan.Posting.Tags()),
	}

	// A parked attempt resumes under this session's record instead of
	// getting a second row; the machine picks its progress snapshot up.
	existing, err := c.attempts.FindByProfileAndPosting(ctx, profile.ID, plan.Posting.ID)
	if err != nil {
		log.WithField("error_type", "db").Errorf("failed to look up prior attempt: %v", err)
		state.skip()
		return
	}
	if existing != nil && existing.Status == models.StatusManual {
		attempt.ID = existing.ID
		log.Infof("resuming parked attempt %d for posting %d", attempt.ID, plan.Posting.ID)
		err = c.attempts.Update(ctx, attempt)
	} else {
		err = c.attempts.Create(ctx, &attempt)
	}
	if err != nil {
		log.WithField("error_type", "db").Errorf("failed to persist attempt record: %v", err)
		state.skip()
		return
	}

	started := time.Now()
	outcome, err := c.runner.RunAttempt(ctx, sessionID, plan, profile)
	elapsed := time.Since(started)

	if err != nil {
		// Engine loss ends the whole session; the in-flight attempt is
		// recorded as failed.
		log.WithField("error_type", "engine").Errorf("session %v: %v", sessionID, err)
		outcome = automation.Outcome{
			Status:     models.StatusFailed,
			FinalState: automation.StateFailed,
			Error: &models.ErrorRecord{
				ErrorType: "engine_lost",
				Category:  models.CategoryFatalEngine,
				Site:      site,
				Message:   err.Error(),
			},
		}
		state.loseEngine()
		cancel()
	}

	c.persistOutcome(ctx, &attempt, outcome)
	state.record(site, outcome, elapsed)
	metrics.AttemptsCounter.WithLabelValues(site, string(outcome.Status)).Inc()

	c.updateBreaker(siteBreaker, site, outcome)
	c.publishAttempt(sessionID, attempt, outcome)
}

func (c *Coordinator) recordDuplicate(ctx context.Context, sessionID string,
	plan models.ApplicationPlan, state *sessionState) {

	attempt := models.ApplicationAttempt{
		ProfileID:       plan.ProfileID,
		PostingID:       plan.Posting.ID,
		SessionID:       sessionID,
		Site:            plan.Posting.Site,
		Status:          models.StatusDuplicate,
		ResumeVariantID: plan.ResumeVariantID,
		MatchTags:       models.JoinTags(plan.Posting.Tags()),
	}
	if err := c.attempts.Create(ctx, &attempt); err != nil {
		log.WithField("error_type", "db").Errorf("failed to record duplicate: %v", err)
		state.skip()
		return
	}

	state.record(plan.Posting.Site, automation.Outcome{Status: models.StatusDuplicate}, 0)
	metrics.AttemptsCounter.WithLabelValues(plan.Posting.Site, string(models.StatusDuplicate)).Inc()
	c.publishAttempt(sessionID, attempt, automation.Outcome{Status: models.StatusDuplicate})
}

func (c *Coordinator) persistOutcome(ctx context.Context, attempt *models.ApplicationAttempt, outcome automation.Outcome) {

	attempt.Status = outcome.Status
	attempt.RetryCount = outcome.RetryCount
	attempt.ScreenshotPath = outcome.ScreenshotPath
	if outcome.RetryCount > 0 {
		now := time.Now()
		attempt.LastRetryAt = &now
	}
	if outcome.Status == models.StatusSubmitted {
		now := time.Now()
		attempt.AppliedAt = &now
	}
	if outcome.Error != nil {
		attempt.ErrorMessage = outcome.Error.Message
	}

	// Final persistence must survive cancellation.
	if err := c.attempts.Update(context.WithoutCancel(ctx), *attempt); err != nil {
		log.WithField("error_type", "db").Errorf("failed to persist attempt outcome: %v", err)
	}
}

func (c *Coordinator) updateBreaker(siteBreaker *breaker, site string, outcome automation.Outcome) {
	siteFailure := outcome.Status == models.StatusFailed &&
		(outcome.Error == nil || outcome.Error.Category != models.CategoryCancelled)

	if !siteFailure {
		siteBreaker.Success(site)
		return
	}
	if siteBreaker.Failure(site) {
		log.Warnf("circuit breaker tripped for site %v", site)
		metrics.BreakerTripsCounter.WithLabelValues(site).Inc()
	}
}

func (c *Coordinator) publishAttempt(sessionID string, attempt models.ApplicationAttempt, outcome automation.Outcome) {
	if outcome.Error != nil {
		outcome.Error.SessionID = sessionID
		outcome.Error.AttemptID = &attempt.ID
		outcome.Error.OccurredAt = time.Now()
	}
	c.bus.Publish(events.AttemptFinishedTopic, events.AttemptFinished{
		SessionID: sessionID,
		Attempt:   attempt,
		Error:     outcome.Error,
	})
}

func (c *Coordinator) finish(ctx context.Context, session *models.AutomationSession,
	state *sessionState) (*models.AutomationSession, error) {

	state.mu.Lock()
	now := time.Now()
	session.EndedAt = &now
	session.Attempted = state.attempted
	session.Successful = state.successful
	session.Failed = state.failed
	session.Duplicate = state.duplicate
	session.Manual = state.manual
	session.PerSite = models.EncodePerSite(state.perSite)
	session.TotalErrors = state.totalErrors
	session.CriticalErrors = state.criticalCount
	if state.attempted > 0 {
		session.AverageAttemptSeconds = state.totalSeconds / float64(state.attempted)
	}

	switch {
	case state.engineLost:
		session.Status = models.SessionFailed
		session.Notes = "browser engine lost"
	case ctx.Err() != nil:
		session.Status = models.SessionCancelled
	default:
		session.Status = models.SessionCompleted
	}
	state.mu.Unlock()

	if err := c.sessions.Update(context.WithoutCancel(ctx), *session); err != nil {
		return nil, err
	}

	metrics.SessionDuration.Observe(session.Duration().Seconds())
	c.bus.Publish(events.SessionFinishedTopic, events.SessionFinished{Session: *session})

	log.Infof("session %v %v: attempted %d, successful %d, failed %d, duplicate %d, manual %d, skipped %d",
		session.ID, session.Status, session.Attempted, session.Successful,
		session.Failed, session.Duplicate, session.Manual, state.skipped)
	return session, nil
}

func (s *sessionState) record(site string, outcome automation.Outcome, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempted++
	s.perSite[site]++
	s.totalSeconds += elapsed.Seconds()

	switch outcome.Status {
	case models.StatusSubmitted:
		s.successful++
	case models.StatusFailed:
		s.failed++
	case models.StatusDuplicate:
		s.duplicate++
	case models.StatusManual:
		s.manual++
	}

	if outcome.Error != nil {
		s.totalErrors++
		if outcome.Error.Category == models.CategoryFatalEngine {
			s.criticalCount++
		}
	}
}

func (s *sessionState) skip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
}

func (s *sessionState) loseEngine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engineLost = true
}

// siteLimiters paces attempts per site from the profile's application
// delay. A zero delay disables pacing.
type siteLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	delay    time.Duration
}

func newLimiters(profile models.UserProfile) *siteLimiters {
	return &siteLimiters{
		limiters: map[string]*rate.Limiter{},
		delay:    time.Duration(profile.ApplicationDelaySeconds) * time.Second,
	}
}

func (l *siteLimiters) Wait(ctx context.Context, site string) error {
	if l.delay <= 0 {
		return nil
	}

	l.mu.Lock()
	limiter, ok := l.limiters[site]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(l.delay), 1)
		l.limiters[site] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
