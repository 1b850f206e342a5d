package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/clever-tipster/internal/feed"
	"github.com/yourusername/clever-tipster/internal/logger"
	"github.com/yourusername/clever-tipster/internal/models"
)

// Runner evaluates a match batch
type Runner interface {
	Run(ctx context.Context, matches []models.Match) models.BatchResult
}

// DecisionSaver stores the decisions of a run
type DecisionSaver interface {
	SaveBatch(ctx context.Context, result *models.BatchResult) (int64, error)
}

// RunSummary describes the last completed pipeline run
type RunSummary struct {
	RunID     string    `json:"run_id"`
	Finished  time.Time `json:"finished"`
	Matches   int       `json:"matches"`
	Dropped   int       `json:"dropped"`
	Decisions int       `json:"decisions"`
	Skipped   int       `json:"skipped"`
	Tickets   int       `json:"tickets"`
	Persisted int64     `json:"persisted"`
	Error     string    `json:"error,omitempty"`
}

// PipelineJob fetches a batch, runs the pipeline and persists the decisions
type PipelineJob struct {
	source feed.Source
	runner Runner
	saver  DecisionSaver
	logger *logrus.Entry
	audit  *logger.AuditLogger

	mu   sync.RWMutex
	last RunSummary
}

// NewPipelineJob creates a job. saver may be nil when persistence is disabled.
func NewPipelineJob(source feed.Source, runner Runner, saver DecisionSaver, log *logrus.Logger) *PipelineJob {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PipelineJob{
		source: source,
		runner: runner,
		saver:  saver,
		logger: log.WithField("component", "scheduler"),
		audit:  logger.NewAuditLogger(log),
	}
}

// Execute performs one fetch, evaluate and persist cycle
func (j *PipelineJob) Execute(ctx context.Context) (models.BatchResult, error) {
	batch, err := j.source.Fetch(ctx)
	if err != nil {
		j.record(RunSummary{Finished: time.Now(), Error: err.Error()})
		return models.BatchResult{}, fmt.Errorf("failed to fetch matches from %s: %w", j.source.Name(), err)
	}

	result := j.runner.Run(ctx, batch.Matches)
	summary := RunSummary{
		RunID:     result.RunID.String(),
		Matches:   len(batch.Matches),
		Dropped:   len(batch.Dropped),
		Decisions: len(result.Decisions),
		Skipped:   len(result.Skipped),
		Tickets:   len(result.Tickets),
	}

	if j.saver != nil {
		n, err := j.saver.SaveBatch(ctx, &result)
		summary.Persisted = n
		if err != nil {
			summary.Finished = time.Now()
			summary.Error = err.Error()
			j.record(summary)
			return result, fmt.Errorf("failed to persist run %s: %w", result.RunID, err)
		}
		j.audit.LogDecisionsPersisted(summary.RunID, int(n), time.Now())
	}

	summary.Finished = time.Now()
	j.record(summary)
	return result, nil
}

// LastRun returns the summary of the most recent run
func (j *PipelineJob) LastRun() RunSummary {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}

func (j *PipelineJob) record(s RunSummary) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.last = s
}
