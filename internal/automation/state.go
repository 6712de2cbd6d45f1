package automation

// State is one node of the attempt state machine. The happy path runs
// Init through Verified in order; Duplicate, Failed and
// ManualInterventionRequired are alternate terminals.
type State string

const (
	StateInit             State = "init"
	StateNavigating       State = "navigating"
	StateFormDetected     State = "form_detected"
	StateFormFilled       State = "form_filled"
	StateDocumentUploaded State = "document_uploaded"
	StateSubmitted        State = "submitted"
	StateVerified         State = "verified"

	StateDuplicate State = "duplicate"
	StateFailed    State = "failed"
	StateManual    State = "manual_intervention_required"
)

// stateRank orders the happy path so resumed attempts can tell which
// steps are already behind them.
var stateRank = map[State]int{
	StateInit:             0,
	StateNavigating:       1,
	StateFormDetected:     2,
	StateFormFilled:       3,
	StateDocumentUploaded: 4,
	StateSubmitted:        5,
	StateVerified:         6,
}

func (s State) rank() int {
	return stateRank[s]
}

// Reached reports whether this state is at or past the other one on the
// happy path.
func (s State) Reached(other State) bool {
	return s.rank() >= other.rank()
}
