package tests

import (
	"context"

	"github.com/awaizkhanmd/Automation/internal/automation"
	"github.com/awaizkhanmd/Automation/internal/domain/models"
)

// mockMatchClient replays canned scorer responses in order.
type mockMatchClient struct {
	responsesQueue []struct {
		response string
		err      error
	}
}

func (m *mockMatchClient) GenerateResponse(_ context.Context, _ string) (string, error) {
	if len(m.responsesQueue) == 0 {
		return "", nil
	}
	next := m.responsesQueue[0]
	m.responsesQueue = m.responsesQueue[1:]
	return next.response, next.err
}

// mockAttemptRunner replays canned attempt outcomes instead of driving a
// browser.
type mockAttemptRunner struct {
	outcomes []automation.Outcome
	calls    int
	plans    []models.ApplicationPlan
}

func (m *mockAttemptRunner) RunAttempt(_ context.Context, _ string, plan models.ApplicationPlan,
	_ models.UserProfile) (automation.Outcome, error) {

	m.plans = append(m.plans, plan)
	outcome := m.outcomes[m.calls%len(m.outcomes)]
	m.calls++
	return outcome, nil
}
