package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/awaizkhanmd/Automation/internal/intake"
	"github.com/awaizkhanmd/Automation/internal/logger"
	"github.com/awaizkhanmd/Automation/internal/repositories"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var skipScoring bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Normalize and score a batch of scraped postings from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return ingest(args[0])
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&skipScoring, "skip-scoring", false, "store postings without calling the match scorer")
}

// rawPostingRecord is the scraper's wire format, one object per posting.
type rawPostingRecord struct {
	Site       string         `json:"site"`
	ExternalID string         `json:"external_id"`
	URL        string         `json:"url"`
	Title      string         `json:"title"`
	Company    string         `json:"company"`
	Location   string         `json:"location"`
	Text       string         `json:"text"`
	PostedDate time.Time      `json:"posted_date"`
	Extra      map[string]any `json:"extra"`
}

func ingest(file string) error {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := getConfig()
	if err != nil {
		return err
	}

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	data, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "can't read postings file")
	}

	var records []rawPostingRecord
	if err = json.Unmarshal(data, &records); err != nil {
		return errors.Wrap(err, "can't parse postings file")
	}

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		return errors.Wrap(err, "can't create db context")
	}
	defer dbContext.Close()

	if err = dbContext.Migrate(); err != nil {
		return errors.Wrap(err, "can't migrate db context")
	}

	postings := repositories.NewPostingsRepository(dbContext.DB)
	normalizer := intake.NewNormalizer(postings)

	raws := lo.Map(records, func(record rawPostingRecord, _ int) intake.RawPosting {
		return intake.RawPosting{
			Site:       record.Site,
			ExternalID: record.ExternalID,
			URL:        record.URL,
			Title:      record.Title,
			Company:    record.Company,
			Location:   record.Location,
			Text:       record.Text,
			PostedDate: record.PostedDate,
			Extra:      record.Extra,
		}
	})

	normalized := normalizer.NormalizeBatch(ctx, raws)
	log.Infof("normalized %d of %d raw postings", len(normalized), len(records))

	if skipScoring {
		return nil
	}

	scored, err := scoreCandidates(ctx, cfg, postings, cfg.Profile.ToModel(), normalized)
	if err != nil {
		return err
	}

	withScore := lo.CountBy(scored, func(posting models.JobPosting) bool {
		return posting.MatchScore > 0
	})
	log.Infof("scored %d of %d postings", withScore, len(scored))
	return nil
}
