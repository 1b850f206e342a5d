// Package logger provides pipeline-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// PipelineLogger provides dedicated logging for pipeline runs.
type PipelineLogger struct {
	*logrus.Entry
}

// NewPipelineLogger creates a new pipeline logger.
func NewPipelineLogger(baseLogger *logrus.Logger) *PipelineLogger {
	return &PipelineLogger{
		Entry: baseLogger.WithField("component", "pipeline"),
	}
}

// LogBatchStarted logs the start of a batch run.
func (pl *PipelineLogger) LogBatchStarted(runID string, matches, workers int) {
	pl.WithFields(logrus.Fields{
		"run_id":  runID,
		"matches": matches,
		"workers": workers,
	}).Info("Pipeline batch started")
}

// LogBatchCompleted logs the outcome of a batch run.
func (pl *PipelineLogger) LogBatchCompleted(runID string, decisions, skipped, singles, tickets int, durationMs float64) {
	pl.WithFields(logrus.Fields{
		"run_id":      runID,
		"decisions":   decisions,
		"skipped":     skipped,
		"singles":     singles,
		"tickets":     tickets,
		"duration_ms": durationMs,
	}).Info("Pipeline batch completed")
}

// LogMatchSkipped logs a match that produced no decision.
func (pl *PipelineLogger) LogMatchSkipped(runID, matchID, reason string) {
	pl.WithFields(logrus.Fields{
		"run_id":   runID,
		"match_id": matchID,
		"reason":   reason,
	}).Warn("Match skipped")
}

// LogDecision logs a single match decision.
func (pl *PipelineLogger) LogDecision(runID, matchID, bestPick string, probability, correction, edgeScore, valueIndex float64, eligible bool) {
	pl.WithFields(logrus.Fields{
		"run_id":      runID,
		"match_id":    matchID,
		"best_pick":   bestPick,
		"probability": probability,
		"correction":  correction,
		"edge_score":  edgeScore,
		"value_index": valueIndex,
		"eligible":    eligible,
	}).Debug("Match decision made")
}

// LogTicketsBuilt logs the combination optimizer result.
func (pl *PipelineLogger) LogTicketsBuilt(runID string, pool, tickets int, bestScore float64) {
	pl.WithFields(logrus.Fields{
		"run_id":     runID,
		"pool_size":  pool,
		"tickets":    tickets,
		"best_score": bestScore,
	}).Info("Combination tickets built")
}
