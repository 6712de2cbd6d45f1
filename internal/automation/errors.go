package automation

import (
	"context"
	"fmt"

	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/pkg/errors"
)

// StepError is the classified failure of one state transition. Retryable
// errors (network, timeout) are re-attempted under the backoff policy;
// everything else is fatal to the attempt, never to the session.
type StepError struct {
	Category  models.ErrorCategory
	Retryable bool
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func NetworkError(err error) *StepError {
	return &StepError{Category: models.CategoryNetwork, Retryable: true, Err: err}
}

func TimeoutError(err error) *StepError {
	return &StepError{Category: models.CategoryTimeout, Retryable: true, Err: err}
}

func ElementNotFound(what string) *StepError {
	return &StepError{Category: models.CategoryElementNotFound, Err: errors.Errorf("element not found: %s", what)}
}

func ValidationError(err error) *StepError {
	return &StepError{Category: models.CategoryValidation, Err: err}
}

// ChallengeDetected parks the attempt for a human; it is neither a
// success nor a failure.
func ChallengeDetected(kind string) *StepError {
	return &StepError{Category: models.CategoryManualChallenge, Err: errors.Errorf("manual challenge detected: %s", kind)}
}

// DuplicateDetected is a terminal non-failure outcome.
func DuplicateDetected() *StepError {
	return &StepError{Category: models.CategoryDuplicate, Err: errors.New("site reports a prior application")}
}

func Unverified(err error) *StepError {
	return &StepError{Category: models.CategoryUnverified, Err: err}
}

// Classify maps an arbitrary step failure onto the taxonomy. Typed
// errors pass through; context errors become timeouts or cancellations;
// anything unknown is a non-retryable network-class failure.
func Classify(err error) *StepError {

	var step *StepError
	if errors.As(err, &step) {
		return step
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutError(err)
	}
	if errors.Is(err, context.Canceled) {
		return &StepError{Category: models.CategoryCancelled, Err: err}
	}

	return &StepError{Category: models.CategoryNetwork, Err: err}
}
