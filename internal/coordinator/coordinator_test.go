package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/awaizkhanmd/Automation/internal/automation"
	"github.com/awaizkhanmd/Automation/internal/domain/events"
	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/stretchr/testify/assert"
)

type fakeAttempts struct {
	mu        sync.Mutex
	created   []models.ApplicationAttempt
	updated   []models.ApplicationAttempt
	submitted map[int]bool
	nextID    int
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{submitted: map[int]bool{}}
}

func (f *fakeAttempts) Create(_ context.Context, attempt *models.ApplicationAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	attempt.ID = f.nextID
	f.created = append(f.created, *attempt)
	return nil
}

func (f *fakeAttempts) Update(_ context.Context, attempt models.ApplicationAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, attempt)
	return nil
}

func (f *fakeAttempts) HasSubmitted(_ context.Context, _ string, postingID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted[postingID], nil
}

func (f *fakeAttempts) FindByProfileAndPosting(_ context.Context, profileID string,
	postingID int) (*models.ApplicationAttempt, error) {

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, attempt := range f.created {
		if attempt.ProfileID == profileID && attempt.PostingID == postingID {
			found := attempt
			return &found, nil
		}
	}
	return nil, nil
}

type fakeSessions struct {
	mu      sync.Mutex
	created *models.AutomationSession
	updated *models.AutomationSession
}

func (f *fakeSessions) Create(_ context.Context, session *models.AutomationSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session.StartedAt = time.Now()
	session.Status = models.SessionActive
	f.created = session
	return nil
}

func (f *fakeSessions) Update(_ context.Context, session models.AutomationSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = &session
	return nil
}

type fakeRunner struct {
	mu       sync.Mutex
	calls    int
	runner   func(call int, plan models.ApplicationPlan) (automation.Outcome, error)
	lastPlan models.ApplicationPlan
}

func (f *fakeRunner) RunAttempt(_ context.Context, _ string, plan models.ApplicationPlan,
	_ models.UserProfile) (automation.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastPlan = plan
	return f.runner(f.calls, plan)
}

func submittedOutcome() automation.Outcome {
	return automation.Outcome{
		Status:     models.StatusSubmitted,
		FinalState: automation.StateVerified,
		ReceiptID:  "receipt",
	}
}

func failedOutcomeFor(site string) automation.Outcome {
	return automation.Outcome{
		Status:     models.StatusFailed,
		FinalState: automation.StateFailed,
		Error: &models.ErrorRecord{
			Category: models.CategoryNetwork,
			Site:     site,
			Message:  "connection reset",
		},
	}
}

func plansFor(site string, count int) []models.ApplicationPlan {
	plans := make([]models.ApplicationPlan, 0, count)
	for i := 1; i <= count; i++ {
		plans = append(plans, models.ApplicationPlan{
			Posting: models.JobPosting{
				ID:   i,
				Site: site,
				URL:  "https://example.com/jobs",
			},
			ProfileID:       "profile-1",
			ResumeVariantID: "default",
			ResumePath:      "/resumes/default.pdf",
		})
	}
	return plans
}

func coordinatorProfile() models.UserProfile {
	return models.UserProfile{ID: "profile-1"}
}

func TestCoordinator_AllSubmitted(t *testing.T) {
	attempts := newFakeAttempts()
	sessions := &fakeSessions{}
	runner := &fakeRunner{runner: func(int, models.ApplicationPlan) (automation.Outcome, error) {
		return submittedOutcome(), nil
	}}
	c := NewCoordinator(attempts, sessions, runner, EventBus.New(), 2, 3)

	session, err := c.Run(context.Background(), coordinatorProfile(), plansFor("linkedin", 3))

	assert.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, session.Status)
	assert.Equal(t, 3, session.Attempted)
	assert.Equal(t, 3, session.Successful)
	assert.Equal(t, 0, session.Failed)
	assert.Equal(t, "linkedin=3", session.PerSite)
	assert.NotNil(t, session.EndedAt)
	assert.Len(t, attempts.updated, 3)
	for _, attempt := range attempts.updated {
		assert.Equal(t, models.StatusSubmitted, attempt.Status)
		assert.NotNil(t, attempt.AppliedAt)
	}
}

func TestCoordinator_DuplicatePreCheckSkipsBrowser(t *testing.T) {
	attempts := newFakeAttempts()
	attempts.submitted[1] = true
	sessions := &fakeSessions{}
	runner := &fakeRunner{runner: func(int, models.ApplicationPlan) (automation.Outcome, error) {
		return submittedOutcome(), nil
	}}
	c := NewCoordinator(attempts, sessions, runner, EventBus.New(), 1, 3)

	session, err := c.Run(context.Background(), coordinatorProfile(), plansFor("indeed", 2))

	assert.NoError(t, err)
	assert.Equal(t, 1, session.Duplicate)
	assert.Equal(t, 1, session.Successful)
	assert.Equal(t, 2, session.Attempted)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, 2, runner.lastPlan.Posting.ID)
}

func TestCoordinator_BreakerSuspendsSite(t *testing.T) {
	attempts := newFakeAttempts()
	sessions := &fakeSessions{}
	runner := &fakeRunner{runner: func(_ int, plan models.ApplicationPlan) (automation.Outcome, error) {
		return failedOutcomeFor(plan.Posting.Site), nil
	}}
	c := NewCoordinator(attempts, sessions, runner, EventBus.New(), 1, 2)

	session, err := c.Run(context.Background(), coordinatorProfile(), plansFor("dice", 4))

	assert.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, session.Status)
	assert.Equal(t, 2, session.Attempted)
	assert.Equal(t, 2, session.Failed)
	assert.Equal(t, 2, runner.calls)
}

func TestCoordinator_SuccessResetsBreaker(t *testing.T) {
	attempts := newFakeAttempts()
	sessions := &fakeSessions{}
	runner := &fakeRunner{runner: func(call int, plan models.ApplicationPlan) (automation.Outcome, error) {
		if call == 2 {
			return submittedOutcome(), nil
		}
		return failedOutcomeFor(plan.Posting.Site), nil
	}}
	c := NewCoordinator(attempts, sessions, runner, EventBus.New(), 1, 2)

	session, err := c.Run(context.Background(), coordinatorProfile(), plansFor("dice", 4))

	assert.NoError(t, err)
	assert.Equal(t, 4, session.Attempted)
	assert.Equal(t, 1, session.Successful)
	assert.Equal(t, 3, session.Failed)
}

func TestCoordinator_ParkedAttemptResumesWithoutSecondRecord(t *testing.T) {
	attempts := newFakeAttempts()
	parked := models.ApplicationAttempt{
		ProfileID: "profile-1",
		PostingID: 1,
		Site:      "linkedin",
		Status:    models.StatusManual,
	}
	assert.NoError(t, attempts.Create(context.Background(), &parked))

	sessions := &fakeSessions{}
	runner := &fakeRunner{runner: func(int, models.ApplicationPlan) (automation.Outcome, error) {
		return submittedOutcome(), nil
	}}
	c := NewCoordinator(attempts, sessions, runner, EventBus.New(), 1, 3)

	session, err := c.Run(context.Background(), coordinatorProfile(), plansFor("linkedin", 1))

	assert.NoError(t, err)
	assert.Equal(t, 1, session.Successful)
	assert.Equal(t, 1, runner.calls)

	// The parked record is reused, not shadowed by a second row.
	assert.Len(t, attempts.created, 1)
	if assert.NotEmpty(t, attempts.updated) {
		last := attempts.updated[len(attempts.updated)-1]
		assert.Equal(t, parked.ID, last.ID)
		assert.Equal(t, models.StatusSubmitted, last.Status)
	}
}

func TestCoordinator_EngineLossEndsSession(t *testing.T) {
	attempts := newFakeAttempts()
	sessions := &fakeSessions{}
	runner := &fakeRunner{runner: func(int, models.ApplicationPlan) (automation.Outcome, error) {
		return automation.Outcome{}, ErrEngineLost
	}}
	c := NewCoordinator(attempts, sessions, runner, EventBus.New(), 1, 3)

	session, err := c.Run(context.Background(), coordinatorProfile(), plansFor("linkedin", 3))

	assert.NoError(t, err)
	assert.Equal(t, models.SessionFailed, session.Status)
	assert.Equal(t, 1, session.Attempted)
	assert.Equal(t, 1, session.CriticalErrors)
	assert.Equal(t, 1, runner.calls)
}

func TestCoordinator_CancellationFinishesCurrentAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := newFakeAttempts()
	sessions := &fakeSessions{}
	runner := &fakeRunner{runner: func(int, models.ApplicationPlan) (automation.Outcome, error) {
		cancel()
		return submittedOutcome(), nil
	}}
	c := NewCoordinator(attempts, sessions, runner, EventBus.New(), 1, 3)

	session, err := c.Run(ctx, coordinatorProfile(), plansFor("linkedin", 3))

	assert.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, session.Status)
	assert.Equal(t, 1, session.Successful)
	assert.Equal(t, 1, runner.calls)
}

func TestCoordinator_PublishesAttemptAndSessionEvents(t *testing.T) {
	attempts := newFakeAttempts()
	sessions := &fakeSessions{}
	runner := &fakeRunner{runner: func(_ int, plan models.ApplicationPlan) (automation.Outcome, error) {
		return failedOutcomeFor(plan.Posting.Site), nil
	}}

	bus := EventBus.New()
	var mu sync.Mutex
	var finished []events.AttemptFinished
	var sessionEvents []events.SessionFinished

	assert.NoError(t, bus.Subscribe(events.AttemptFinishedTopic, func(event events.AttemptFinished) {
		mu.Lock()
		defer mu.Unlock()
		finished = append(finished, event)
	}))
	assert.NoError(t, bus.Subscribe(events.SessionFinishedTopic, func(event events.SessionFinished) {
		mu.Lock()
		defer mu.Unlock()
		sessionEvents = append(sessionEvents, event)
	}))

	c := NewCoordinator(attempts, sessions, runner, bus, 1, 10)
	session, err := c.Run(context.Background(), coordinatorProfile(), plansFor("indeed", 2))

	assert.NoError(t, err)
	assert.Len(t, finished, 2)
	for _, event := range finished {
		assert.Equal(t, session.ID, event.SessionID)
		if assert.NotNil(t, event.Error) {
			assert.Equal(t, session.ID, event.Error.SessionID)
			assert.NotNil(t, event.Error.AttemptID)
		}
	}
	assert.Len(t, sessionEvents, 1)
	assert.Equal(t, models.SessionCompleted, sessionEvents[0].Session.Status)
}

func TestBreaker(t *testing.T) {
	b := newBreaker(2)

	assert.True(t, b.Allow("linkedin"))
	assert.False(t, b.Failure("linkedin"))
	assert.True(t, b.Allow("linkedin"))
	assert.True(t, b.Failure("linkedin"))
	assert.False(t, b.Allow("linkedin"))

	// Other sites are unaffected.
	assert.True(t, b.Allow("indeed"))

	b.Success("indeed")
	assert.False(t, b.Failure("indeed"))
	assert.True(t, b.Allow("indeed"))
}
