package scoring

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/awaizkhanmd/Automation/internal/metrics"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrScoringUnavailable signals that the scoring collaborator timed out
// or failed. The planner treats the posting as score 0 and moves on.
var ErrScoringUnavailable = errors.New("scoring service unavailable")

type matchClient interface {
	GenerateResponse(ctx context.Context, request string) (string, error)
}

// Result is a bounded match score plus the requirement tags the scorer
// extracted from the posting text.
type Result struct {
	Score float64
	Tags  []string
}

// Scorer wraps the external similarity service. Pure with respect to its
// inputs: scoring never mutates the profile or the posting.
type Scorer struct {
	client  matchClient
	cache   *gocache.Cache
	timeout time.Duration
}

func NewScorer(client matchClient, timeout time.Duration) *Scorer {
	return &Scorer{
		client:  client,
		cache:   gocache.New(12*time.Hour, time.Hour),
		timeout: timeout,
	}
}

// Score rates how well the posting fits the profile, in [0, 1]. Results
// are cached per (profile version, posting content); a profile update or
// re-scrape invalidates the cache naturally through the key.
func (s *Scorer) Score(ctx context.Context, profile models.UserProfile, posting models.JobPosting) (Result, error) {

	cacheID := cacheKey(profile, posting)
	if cached, found := s.cache.Get(cacheID); found {
		return cached.(Result), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.client.GenerateResponse(ctx, buildRequest(profile, posting))
	if err != nil {
		return Result{}, errors.Wrapf(ErrScoringUnavailable, "posting %v/%v: %v", posting.Site, posting.ExternalID, err)
	}

	result, err := parseResponse(response)
	if err != nil {
		return Result{}, errors.Wrapf(ErrScoringUnavailable, "posting %v/%v: %v", posting.Site, posting.ExternalID, err)
	}

	metrics.ScoredPostingsCounter.Inc()
	log.Debugf("scored posting %v/%v: %.2f %v", posting.Site, posting.ExternalID, result.Score, result.Tags)

	if err = s.cache.Add(cacheID, result, gocache.DefaultExpiration); err != nil {
		log.Errorf("failed to cache score: %v", err)
	}
	return result, nil
}

func buildRequest(profile models.UserProfile, posting models.JobPosting) string {

	var sb strings.Builder
	sb.WriteString("Candidate title: " + profile.CurrentTitle)
	sb.WriteString(" Skills: " + strings.Join(profile.Skills, ", "))
	sb.WriteString(fmt.Sprintf(" Experience: %d years.", profile.ExperienceYears))
	if len(profile.TargetRoles) > 0 {
		sb.WriteString(" Target roles: " + strings.Join(profile.TargetRoles, ", ") + ".")
	}
	sb.WriteString(" Job title: " + posting.Title)
	sb.WriteString(" Company: " + posting.Company)
	sb.WriteString(" Requirements: " + posting.Requirements)
	sb.WriteString(" Rate how well the candidate matches this job." +
		" Answer with a single line in the form score|tag1,tag2,tag3 where score is a number" +
		" between 0 and 1 and the tags are the key requirements of the job, lowercase. No other text.")
	return sb.String()
}

func parseResponse(response string) (Result, error) {

	response = strings.TrimSpace(strings.ReplaceAll(response, "*", ""))
	scorePart, tagsPart, _ := strings.Cut(response, "|")

	score, err := strconv.ParseFloat(strings.TrimSpace(scorePart), 64)
	if err != nil {
		return Result{}, fmt.Errorf("unexpected response %q", response)
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	var tags []string
	for _, tag := range strings.Split(tagsPart, ",") {
		if trimmed := strings.ToLower(strings.TrimSpace(tag)); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}

	return Result{Score: score, Tags: tags}, nil
}

func cacheKey(profile models.UserProfile, posting models.JobPosting) string {
	return fmt.Sprintf("%s:%d:%s", profile.ID, profile.Version, posting.ContentHash)
}
