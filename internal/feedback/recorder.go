package feedback

import (
	"context"

	"github.com/asaskevich/EventBus"
	"github.com/awaizkhanmd/Automation/internal/domain/events"
	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type errorsRepository interface {
	Append(ctx context.Context, record *models.ErrorRecord) error
}

type attemptOutcomeRepository interface {
	FindByProfileAndPosting(ctx context.Context, profileID string, postingID int) (*models.ApplicationAttempt, error)
	Update(ctx context.Context, attempt models.ApplicationAttempt) error
}

// Recorder persists the audit trail of finished attempts and accepts
// manual outcome updates that arrive long after a session ends.
type Recorder struct {
	errors   errorsRepository
	attempts attemptOutcomeRepository
}

func NewRecorder(errors errorsRepository, attempts attemptOutcomeRepository) *Recorder {
	return &Recorder{errors: errors, attempts: attempts}
}

func (r *Recorder) Subscribe(bus EventBus.Bus) error {
	return bus.Subscribe(events.AttemptFinishedTopic, r.onAttemptFinished)
}

func (r *Recorder) onAttemptFinished(event events.AttemptFinished) {
	if event.Error == nil {
		return
	}
	if err := r.errors.Append(context.Background(), event.Error); err != nil {
		log.WithField("error_type", "db").Errorf("failed to persist error record: %v", err)
	}
}

// RecordOutcome applies a human-reported result (rejected, interview,
// offer) to a submitted attempt. Only forward status movement is allowed.
func (r *Recorder) RecordOutcome(ctx context.Context, profileID string, postingID int,
	status models.ApplicationStatus) error {

	switch status {
	case models.StatusRejected, models.StatusInterview, models.StatusOffer:
	default:
		return errors.Errorf("status %q cannot be reported manually", status)
	}

	attempt, err := r.attempts.FindByProfileAndPosting(ctx, profileID, postingID)
	if err != nil {
		return err
	}
	if attempt == nil {
		return errors.Errorf("no attempt found for posting %d", postingID)
	}
	if !attempt.Status.Succeeded() {
		return errors.Errorf("attempt for posting %d was never submitted (status %v)", postingID, attempt.Status)
	}

	attempt.Status = status
	return r.attempts.Update(ctx, *attempt)
}
