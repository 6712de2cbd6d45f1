package automation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type fakeAutomator struct {
	navigateErrs   []error
	navigateCalls  int
	alreadyApplied bool

	// DetectChallenge reports true from this call on; zero means never.
	challengeFrom  int
	challengeCalls int

	detectErr         error
	detectFallbackErr error
	detectCalls       int
	form              Form

	fillErr   error
	uploadErr error
	submitErr error

	submitCalls int
	uploadCalls int

	confirmErrs    []error
	confirmCalls   int
	confirmReceipt string
}

func (f *fakeAutomator) Site() string { return "testsite" }

func (f *fakeAutomator) Navigate(_ context.Context, _ string) error {
	f.navigateCalls++
	if len(f.navigateErrs) > 0 {
		err := f.navigateErrs[0]
		f.navigateErrs = f.navigateErrs[1:]
		return err
	}
	return nil
}

func (f *fakeAutomator) AlreadyApplied(_ context.Context) (bool, error) {
	return f.alreadyApplied, nil
}

func (f *fakeAutomator) DetectChallenge(_ context.Context) (bool, error) {
	f.challengeCalls++
	return f.challengeFrom > 0 && f.challengeCalls >= f.challengeFrom, nil
}

func (f *fakeAutomator) DetectForm(_ context.Context, useFallback bool) (Form, error) {
	f.detectCalls++
	if !useFallback && f.detectErr != nil {
		return Form{}, f.detectErr
	}
	if useFallback && f.detectFallbackErr != nil {
		return Form{}, f.detectFallbackErr
	}
	return f.form, nil
}

func (f *fakeAutomator) FillForm(_ context.Context, _ Form, _ FormValues) error {
	return f.fillErr
}

func (f *fakeAutomator) UploadResume(_ context.Context, _ string) error {
	f.uploadCalls++
	return f.uploadErr
}

func (f *fakeAutomator) Submit(_ context.Context, _ Form) error {
	f.submitCalls++
	return f.submitErr
}

func (f *fakeAutomator) ConfirmSubmission(_ context.Context) (string, error) {
	f.confirmCalls++
	if len(f.confirmErrs) > 0 {
		err := f.confirmErrs[0]
		f.confirmErrs = f.confirmErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return f.confirmReceipt, nil
}

func (f *fakeAutomator) Screenshot(name string) string { return "/tmp/" + name + ".png" }
func (f *fakeAutomator) CurrentURL() string            { return "https://testsite.example/jobs/1" }
func (f *fakeAutomator) PageTitle() string             { return "Test Job" }

type memoryStore struct {
	data map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}}
}

func (s *memoryStore) Save(_ context.Context, id string, data []byte) error {
	s.data[id] = data
	return nil
}

func (s *memoryStore) Load(_ context.Context, id string) ([]byte, error) {
	return s.data[id], nil
}

func (s *memoryStore) Remove(_ context.Context, id string) error {
	delete(s.data, id)
	return nil
}

func testPlan() models.ApplicationPlan {
	return models.ApplicationPlan{
		Posting: models.JobPosting{
			ID:    1,
			Site:  "testsite",
			Title: "Backend Engineer",
			URL:   "https://testsite.example/jobs/1",
		},
		ProfileID:       "profile-1",
		ResumeVariantID: "default",
		ResumePath:      "/resumes/default.pdf",
	}
}

func testProfile() models.UserProfile {
	return models.UserProfile{
		ID:              "profile-1",
		FirstName:       "Alex",
		LastName:        "Morgan",
		Email:           "alex@example.com",
		Phone:           "+15550001111",
		Location:        "Austin, TX",
		ExperienceYears: 5,
	}
}

func simpleForm() Form {
	return Form{
		Fields: []Field{
			{Kind: FieldEmail, Selector: "#email", Required: true},
			{Kind: FieldPhone, Selector: "#phone", Required: false},
		},
		RequiresUpload: true,
	}
}

func testConfig() Config {
	return Config{
		MaxRetries:    3,
		Backoff:       Backoff{Base: time.Millisecond, Max: 4 * time.Millisecond},
		VerifyTimeout: 50 * time.Millisecond,
	}
}

func newTestMachine(site *fakeAutomator, store *memoryStore) *Machine {
	m := NewMachine(site, store, testConfig())
	m.sleep = func(time.Duration) {}
	return m
}

func TestMachine_HappyPath(t *testing.T) {
	site := &fakeAutomator{form: simpleForm(), confirmReceipt: "receipt-42"}
	m := newTestMachine(site, newMemoryStore())

	outcome := m.Run(context.Background(), testPlan(), testProfile())

	assert.Equal(t, models.StatusSubmitted, outcome.Status)
	assert.Equal(t, StateVerified, outcome.FinalState)
	assert.Equal(t, 0, outcome.RetryCount)
	assert.Equal(t, "receipt-42", outcome.ReceiptID)
	assert.Equal(t, 1, site.submitCalls)
	assert.Equal(t, 1, site.uploadCalls)
	assert.Nil(t, outcome.Error)
}

func TestMachine_NavigationRetriesThenSucceeds(t *testing.T) {
	site := &fakeAutomator{
		navigateErrs: []error{
			NetworkError(errors.New("connection reset")),
			TimeoutError(errors.New("page load timed out")),
		},
		form:           simpleForm(),
		confirmReceipt: "receipt-1",
	}
	m := newTestMachine(site, newMemoryStore())

	outcome := m.Run(context.Background(), testPlan(), testProfile())

	assert.Equal(t, models.StatusSubmitted, outcome.Status)
	assert.Equal(t, 2, outcome.RetryCount)
	assert.Equal(t, 3, site.navigateCalls)
}

func TestMachine_NavigationRetriesExhausted(t *testing.T) {
	navErr := NetworkError(errors.New("connection reset"))
	site := &fakeAutomator{
		navigateErrs: []error{navErr, navErr, navErr, navErr},
	}
	m := newTestMachine(site, newMemoryStore())

	outcome := m.Run(context.Background(), testPlan(), testProfile())

	assert.Equal(t, models.StatusFailed, outcome.Status)
	assert.Equal(t, StateFailed, outcome.FinalState)
	assert.Equal(t, 3, outcome.RetryCount)
	assert.Equal(t, 4, site.navigateCalls)
	if assert.NotNil(t, outcome.Error) {
		assert.Equal(t, models.CategoryNetwork, outcome.Error.Category)
	}
	assert.Equal(t, 0, site.submitCalls)
}

func TestMachine_ChallengeParksAttemptAndSavesProgress(t *testing.T) {
	site := &fakeAutomator{challengeFrom: 1}
	store := newMemoryStore()
	m := newTestMachine(site, store)
	plan := testPlan()

	outcome := m.Run(context.Background(), plan, testProfile())

	assert.Equal(t, models.StatusManual, outcome.Status)
	assert.Equal(t, StateManual, outcome.FinalState)
	if assert.NotNil(t, outcome.Error) {
		assert.Equal(t, models.CategoryManualChallenge, outcome.Error.Category)
		assert.NotEmpty(t, outcome.Error.ScreenshotPath)
	}

	data := store.data[progressID(plan)]
	if assert.NotNil(t, data) {
		var saved progress
		assert.NoError(t, json.Unmarshal(data, &saved))
	}
}

func TestMachine_DuplicateShortCircuits(t *testing.T) {
	site := &fakeAutomator{alreadyApplied: true, form: simpleForm()}
	m := newTestMachine(site, newMemoryStore())

	outcome := m.Run(context.Background(), testPlan(), testProfile())

	assert.Equal(t, models.StatusDuplicate, outcome.Status)
	assert.Equal(t, StateDuplicate, outcome.FinalState)
	assert.Nil(t, outcome.Error)
	assert.Equal(t, 0, site.detectCalls)
	assert.Equal(t, 0, site.submitCalls)
}

func TestMachine_MissingRequiredValueFailsAttempt(t *testing.T) {
	site := &fakeAutomator{form: simpleForm()}
	m := newTestMachine(site, newMemoryStore())
	profile := testProfile()
	profile.Email = ""

	outcome := m.Run(context.Background(), testPlan(), profile)

	assert.Equal(t, models.StatusFailed, outcome.Status)
	if assert.NotNil(t, outcome.Error) {
		assert.Equal(t, models.CategoryValidation, outcome.Error.Category)
		assert.Contains(t, outcome.Error.Message, "email")
	}
	assert.Equal(t, 0, site.submitCalls)
}

func TestMachine_FormDetectionFallback(t *testing.T) {
	site := &fakeAutomator{
		detectErr:      ElementNotFound("application form"),
		form:           simpleForm(),
		confirmReceipt: "receipt-9",
	}
	m := newTestMachine(site, newMemoryStore())

	outcome := m.Run(context.Background(), testPlan(), testProfile())

	assert.Equal(t, models.StatusSubmitted, outcome.Status)
	assert.Equal(t, 2, site.detectCalls)
	assert.Equal(t, 0, outcome.RetryCount)
}

func TestMachine_RetryCountStaysWithinBudget(t *testing.T) {
	navErr := NetworkError(errors.New("connection reset"))
	site := &fakeAutomator{
		navigateErrs:   []error{navErr, navErr, navErr},
		detectErr:      ElementNotFound("application form"),
		form:           simpleForm(),
		confirmReceipt: "receipt-7",
	}
	m := newTestMachine(site, newMemoryStore())

	outcome := m.Run(context.Background(), testPlan(), testProfile())

	// Exhausted navigation retries plus the fallback selector pass must
	// never push the recorded count past the retry budget.
	assert.Equal(t, models.StatusSubmitted, outcome.Status)
	assert.Equal(t, 4, site.navigateCalls)
	assert.Equal(t, 2, site.detectCalls)
	assert.Equal(t, 3, outcome.RetryCount)
	assert.LessOrEqual(t, outcome.RetryCount, testConfig().MaxRetries)
}

func TestMachine_ChallengeDuringFillParksAttempt(t *testing.T) {
	site := &fakeAutomator{
		form:          simpleForm(),
		fillErr:       errors.New("element detached from the page"),
		challengeFrom: 2,
	}
	store := newMemoryStore()
	m := newTestMachine(site, store)
	plan := testPlan()

	outcome := m.Run(context.Background(), plan, testProfile())

	assert.Equal(t, models.StatusManual, outcome.Status)
	assert.Equal(t, StateManual, outcome.FinalState)
	if assert.NotNil(t, outcome.Error) {
		assert.Equal(t, models.CategoryManualChallenge, outcome.Error.Category)
	}
	assert.Equal(t, 0, site.submitCalls)
	assert.NotNil(t, store.data[progressID(plan)])
}

func TestMachine_FormDetectionFallbackAlsoFails(t *testing.T) {
	site := &fakeAutomator{
		detectErr:         ElementNotFound("application form"),
		detectFallbackErr: ElementNotFound("application form"),
	}
	m := newTestMachine(site, newMemoryStore())

	outcome := m.Run(context.Background(), testPlan(), testProfile())

	assert.Equal(t, models.StatusFailed, outcome.Status)
	if assert.NotNil(t, outcome.Error) {
		assert.Equal(t, models.CategoryElementNotFound, outcome.Error.Category)
	}
}

func TestMachine_UnverifiedAfterRecheck(t *testing.T) {
	site := &fakeAutomator{
		form: simpleForm(),
		confirmErrs: []error{
			errors.New("no confirmation signal"),
			errors.New("no confirmation signal"),
		},
	}
	store := newMemoryStore()
	m := newTestMachine(site, store)
	plan := testPlan()

	outcome := m.Run(context.Background(), plan, testProfile())

	assert.Equal(t, models.StatusFailed, outcome.Status)
	assert.Equal(t, 2, site.confirmCalls)
	assert.Equal(t, 1, site.submitCalls)
	if assert.NotNil(t, outcome.Error) {
		assert.Equal(t, models.CategoryUnverified, outcome.Error.Category)
		assert.True(t, outcome.Error.RecoveryAttempted)
	}
	assert.NotNil(t, store.data[progressID(plan)])
}

func TestMachine_RecheckSucceeds(t *testing.T) {
	site := &fakeAutomator{
		form:           simpleForm(),
		confirmErrs:    []error{errors.New("no confirmation signal"), nil},
		confirmReceipt: "receipt-late",
	}
	m := newTestMachine(site, newMemoryStore())

	outcome := m.Run(context.Background(), testPlan(), testProfile())

	assert.Equal(t, models.StatusSubmitted, outcome.Status)
	assert.Equal(t, "receipt-late", outcome.ReceiptID)
	assert.Equal(t, 2, site.confirmCalls)
	assert.Equal(t, 1, site.submitCalls)
}

func TestMachine_ResumeFromSubmittedSkipsResubmission(t *testing.T) {
	site := &fakeAutomator{form: simpleForm(), confirmReceipt: "receipt-resumed"}
	store := newMemoryStore()
	plan := testPlan()

	data, err := json.Marshal(progress{State: StateSubmitted, SavedAt: time.Now()})
	assert.NoError(t, err)
	assert.NoError(t, store.Save(context.Background(), progressID(plan), data))

	m := newTestMachine(site, store)
	outcome := m.Run(context.Background(), plan, testProfile())

	assert.Equal(t, models.StatusSubmitted, outcome.Status)
	assert.Equal(t, "receipt-resumed", outcome.ReceiptID)
	assert.Equal(t, 0, site.submitCalls)
	assert.Equal(t, 0, site.detectCalls)
	assert.Equal(t, 0, site.uploadCalls)
	assert.Nil(t, store.data[progressID(plan)])
}

func TestMachine_ResumeBeforeSubmissionRestartsFromNavigation(t *testing.T) {
	site := &fakeAutomator{form: simpleForm(), confirmReceipt: "receipt-restart"}
	store := newMemoryStore()
	plan := testPlan()

	data, err := json.Marshal(progress{State: StateFormFilled, SavedAt: time.Now()})
	assert.NoError(t, err)
	assert.NoError(t, store.Save(context.Background(), progressID(plan), data))

	m := newTestMachine(site, store)
	outcome := m.Run(context.Background(), plan, testProfile())

	assert.Equal(t, models.StatusSubmitted, outcome.Status)
	assert.Equal(t, 1, site.navigateCalls)
	assert.Equal(t, 1, site.submitCalls)
}

func TestMachine_CancellationStopsBeforeNextTransition(t *testing.T) {
	site := &fakeAutomator{form: simpleForm()}
	m := newTestMachine(site, newMemoryStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := m.Run(ctx, testPlan(), testProfile())

	assert.Equal(t, models.StatusFailed, outcome.Status)
	if assert.NotNil(t, outcome.Error) {
		assert.Equal(t, models.CategoryCancelled, outcome.Error.Category)
	}
	assert.Equal(t, 0, site.navigateCalls)
}

func TestMachine_NoUploadWhenFormDoesNotRequireIt(t *testing.T) {
	form := simpleForm()
	form.RequiresUpload = false
	site := &fakeAutomator{form: form, confirmReceipt: "receipt-2"}
	m := newTestMachine(site, newMemoryStore())

	outcome := m.Run(context.Background(), testPlan(), testProfile())

	assert.Equal(t, models.StatusSubmitted, outcome.Status)
	assert.Equal(t, 0, site.uploadCalls)
}

func TestBackoff_DelaysAreCapped(t *testing.T) {
	b := Backoff{Base: time.Second, Max: 8 * time.Second}

	assert.Equal(t, time.Second, b.Delay(0))
	assert.Equal(t, 2*time.Second, b.Delay(1))
	assert.Equal(t, 4*time.Second, b.Delay(2))
	assert.Equal(t, 8*time.Second, b.Delay(3))
	assert.Equal(t, 8*time.Second, b.Delay(10))

	prev := time.Duration(0)
	for i := 0; i < 12; i++ {
		d := b.Delay(i)
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
}

func TestClassifyField(t *testing.T) {
	assert.Equal(t, FieldEmail, ClassifyField("applicant-email"))
	assert.Equal(t, FieldFirstName, ClassifyField("fname"))
	assert.Equal(t, FieldPhone, ClassifyField("Telephone Number"))
	assert.Equal(t, FieldResume, ClassifyField("resume-upload"))
	assert.Equal(t, FieldMessage, ClassifyField("cover_letter"))
	assert.Equal(t, FieldUnknown, ClassifyField("favorite-color"))
}
