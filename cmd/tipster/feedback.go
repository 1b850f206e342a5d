package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	applogger "github.com/yourusername/clever-tipster/internal/logger"
	"github.com/yourusername/clever-tipster/internal/models"
	"github.com/yourusername/clever-tipster/internal/reliability"
)

const shutdownFlushTimeout = 10 * time.Second

var (
	feedbackSource    string
	feedbackROI       float64
	feedbackErrorRate float64
	feedbackFile      string
	submittedBy       string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Apply realised performance to engine reliability profiles",
	Long: `Apply one feedback signal from flags, or a JSON array of signals from --file,
to the stored reliability profiles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		signals, err := feedbackSignals(cmd)
		if err != nil {
			return err
		}
		return applyFeedback(cmd.Context(), signals)
	},
}

func init() {
	feedbackCmd.Flags().StringVarP(&feedbackSource, "source", "s", "", "Engine source id")
	feedbackCmd.Flags().Float64Var(&feedbackROI, "roi", 0, "Realised return on investment")
	feedbackCmd.Flags().Float64Var(&feedbackErrorRate, "error-rate", 0, "Observed error rate in [0,1]")
	feedbackCmd.Flags().StringVarP(&feedbackFile, "file", "f", "", "JSON array of feedback signals")
	feedbackCmd.Flags().StringVar(&submittedBy, "by", "cli", "Operator recorded in the audit log")
}

func feedbackSignals(cmd *cobra.Command) ([]models.FeedbackSignal, error) {
	if feedbackFile != "" {
		data, err := os.ReadFile(feedbackFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read feedback file: %w", err)
		}
		var signals []models.FeedbackSignal
		if err := json.Unmarshal(data, &signals); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
		}
		return signals, nil
	}

	if feedbackSource == "" {
		return nil, errors.New("either --file or --source is required")
	}
	signal := models.FeedbackSignal{SourceID: feedbackSource}
	if cmd.Flags().Changed("roi") {
		signal.ROI = models.Float64(feedbackROI)
	}
	if cmd.Flags().Changed("error-rate") {
		signal.ErrorRate = models.Float64(feedbackErrorRate)
	}
	return []models.FeedbackSignal{signal}, nil
}

func applyFeedback(ctx context.Context, signals []models.FeedbackSignal) error {
	db, repos, err := openRepositories(ctx)
	if err != nil {
		return err
	}
	if db == nil {
		return errors.New("feedback requires database.enabled")
	}
	defer db.Close()

	store, err := loadStore(ctx, repos)
	if err != nil {
		return err
	}
	audit := applogger.NewAuditLogger(logger)

	for _, signal := range signals {
		before := store.Weight(signal.SourceID)
		if err := store.ApplyFeedback(signal); err != nil {
			return err
		}
		audit.LogFeedbackApplied(signal.SourceID, before, store.Weight(signal.SourceID), submittedBy)
	}

	if err := store.Flush(ctx, repos.Reliability); err != nil {
		return err
	}

	return printProfiles(store)
}

func printProfiles(store *reliability.Store) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(store.Profiles())
}
