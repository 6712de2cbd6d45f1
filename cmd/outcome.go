package cmd

import (
	"context"
	"strconv"

	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/awaizkhanmd/Automation/internal/feedback"
	"github.com/awaizkhanmd/Automation/internal/logger"
	"github.com/awaizkhanmd/Automation/internal/repositories"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var outcomeCmd = &cobra.Command{
	Use:   "outcome <posting-id> <rejected|interview|offer>",
	Short: "Record an employer response for a submitted application",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return recordOutcome(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(outcomeCmd)
}

func recordOutcome(postingArg, statusArg string) error {

	postingID, err := strconv.Atoi(postingArg)
	if err != nil {
		return errors.Errorf("posting id must be a number, got %q", postingArg)
	}

	cfg, err := getConfig()
	if err != nil {
		return err
	}

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		return errors.Wrap(err, "can't create db context")
	}
	defer dbContext.Close()

	attempts := repositories.NewAttemptsRepository(dbContext.DB)
	errorRecords := repositories.NewErrorsRepository(dbContext.DB)
	recorder := feedback.NewRecorder(errorRecords, attempts)

	err = recorder.RecordOutcome(context.Background(), cfg.Profile.ID, postingID,
		models.ApplicationStatus(statusArg))
	if err != nil {
		return err
	}

	log.Infof("recorded %v for posting %d", statusArg, postingID)
	return nil
}
