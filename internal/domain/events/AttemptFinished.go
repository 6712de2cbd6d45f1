package events

import (
	"github.com/awaizkhanmd/Automation/internal/domain/models"
)

var AttemptFinishedTopic = "AttemptFinishedEvent"

// AttemptFinished is published by the coordinator once an attempt
// reaches a terminal (or parked) state. The feedback recorder consumes it.
type AttemptFinished struct {
	SessionID string
	Attempt   models.ApplicationAttempt
	Error     *models.ErrorRecord
}
