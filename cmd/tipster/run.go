package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/clever-tipster/internal/feed"
	"github.com/yourusername/clever-tipster/internal/pipeline"
)

var (
	inputPath  string
	outputPath string
	persist    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate one match batch and print the result as JSON",
	Long: `Evaluate one match batch. The batch is read from --input ("-" for stdin)
or, without --input, from the configured feed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Match batch JSON file, - for stdin")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the result to a file instead of stdout")
	runCmd.Flags().BoolVar(&persist, "persist", false, "Store decisions in the database")
}

func runBatch(ctx context.Context, stdout io.Writer) error {
	batch, err := readBatch(ctx)
	if err != nil {
		return err
	}
	for _, d := range batch.Dropped {
		logger.WithFields(logrus.Fields{"kind": d.Kind, "match_id": d.MatchID, "index": d.Index}).
			Warn("Dropped feed entry: " + d.Reason)
	}

	db, repos, err := openRepositories(ctx)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	store, err := loadStore(ctx, repos)
	if err != nil {
		return err
	}
	orch, err := pipeline.NewOrchestrator(cfg.ToPipelineConfig(), store, logger)
	if err != nil {
		return err
	}

	result := orch.Run(ctx, batch.Matches)

	if persist {
		if repos == nil {
			return fmt.Errorf("--persist requires database.enabled")
		}
		if _, err := repos.Decision.SaveBatch(ctx, &result); err != nil {
			return err
		}
	}

	out := stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readBatch(ctx context.Context) (feed.Batch, error) {
	switch inputPath {
	case "":
		src, err := feed.NewSource(cfg.Feed, logger)
		if err != nil {
			return feed.Batch{}, fmt.Errorf("no --input given and %w", err)
		}
		return src.Fetch(ctx)
	case "-":
		return feed.DecodeBatch(os.Stdin)
	default:
		return feed.NewFileSource(inputPath).Fetch(ctx)
	}
}
