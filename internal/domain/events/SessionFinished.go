package events

import (
	"github.com/awaizkhanmd/Automation/internal/domain/models"
)

var SessionFinishedTopic = "SessionFinishedEvent"

type SessionFinished struct {
	Session models.AutomationSession
}
