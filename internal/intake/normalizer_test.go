package intake

import (
	"context"
	"testing"
	"time"

	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPostings struct {
	mock.Mock
}

func (m *mockPostings) FindByExternalID(ctx context.Context, site, externalID string) (*models.JobPosting, error) {
	args := m.Called(ctx, site, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JobPosting), args.Error(1)
}

func (m *mockPostings) Create(ctx context.Context, posting *models.JobPosting) error {
	return m.Called(ctx, posting).Error(0)
}

func (m *mockPostings) Refresh(ctx context.Context, posting models.JobPosting) error {
	return m.Called(ctx, posting).Error(0)
}

func validRaw() RawPosting {
	return RawPosting{
		Site:       "LinkedIn",
		ExternalID: "ext-42",
		URL:        "https://example.com/jobs/42",
		Title:      "Backend Engineer",
		Company:    "Acme",
		Text:       "Go, SQL",
		PostedDate: time.Now(),
		Extra:      map[string]any{"salary": "100k"},
	}
}

func Test_Normalize_MissingMandatoryFields_ReturnsNormalizationError(t *testing.T) {

	normalizer := NewNormalizer(&mockPostings{})

	raw := validRaw()
	raw.Title = ""
	raw.URL = " "

	_, _, err := normalizer.Normalize(context.Background(), raw)

	var normErr *NormalizationError
	require.ErrorAs(t, err, &normErr)
	assert.Contains(t, normErr.Missing, "title")
	assert.Contains(t, normErr.Missing, "url")
}

func Test_Normalize_NewPosting_CreatesCanonicalRecord(t *testing.T) {

	postings := &mockPostings{}
	postings.On("FindByExternalID", mock.Anything, "linkedin", "ext-42").Return(nil, nil)
	postings.On("Create", mock.Anything, mock.Anything).Return(nil)

	normalizer := NewNormalizer(postings)

	posting, changed, err := normalizer.Normalize(context.Background(), validRaw())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "linkedin", posting.Site)
	assert.True(t, posting.IsActive)
	assert.NotEmpty(t, posting.ContentHash)
	postings.AssertExpectations(t)
}

func Test_Normalize_UnchangedContent_IsNoOp(t *testing.T) {

	raw := validRaw()

	existing := models.JobPosting{
		ID: 5, Site: "linkedin", ExternalID: "ext-42",
		Title: "Backend Engineer", Company: "Acme", Requirements: "Go, SQL",
	}
	existing.ContentHash = contentHash(existing)

	postings := &mockPostings{}
	postings.On("FindByExternalID", mock.Anything, "linkedin", "ext-42").Return(&existing, nil)

	normalizer := NewNormalizer(postings)

	posting, changed, err := normalizer.Normalize(context.Background(), raw)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 5, posting.ID)
	postings.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
	postings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func Test_Normalize_ChangedContent_RefreshesAndKeepsScore(t *testing.T) {

	raw := validRaw()
	raw.Text = "Go, SQL, Kubernetes"

	existing := models.JobPosting{
		ID: 5, Site: "linkedin", ExternalID: "ext-42",
		Title: "Backend Engineer", Company: "Acme", Requirements: "Go, SQL",
		MatchScore: 0.8, MatchTags: "go,sql",
	}
	existing.ContentHash = contentHash(existing)

	postings := &mockPostings{}
	postings.On("FindByExternalID", mock.Anything, "linkedin", "ext-42").Return(&existing, nil)
	postings.On("Refresh", mock.Anything, mock.MatchedBy(func(p models.JobPosting) bool {
		return p.ID == 5 && p.MatchScore == 0.8
	})).Return(nil)

	normalizer := NewNormalizer(postings)

	posting, changed, err := normalizer.Normalize(context.Background(), raw)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 0.8, posting.MatchScore)
	postings.AssertExpectations(t)
}
