// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogDecisionsPersisted logs a batch of decisions written to storage.
func (al *AuditLogger) LogDecisionsPersisted(runID string, decisions int, timestamp time.Time) {
	al.WithFields(logrus.Fields{
		"run_id":    runID,
		"decisions": decisions,
		"timestamp": timestamp.Unix(),
	}).Info("Decisions persisted")
}

// LogFeedbackApplied logs an operator-submitted feedback signal.
func (al *AuditLogger) LogFeedbackApplied(sourceID string, oldWeight, newWeight float64, submittedBy string) {
	al.WithFields(logrus.Fields{
		"source_id":    sourceID,
		"old_weight":   oldWeight,
		"new_weight":   newWeight,
		"submitted_by": submittedBy,
	}).Info("Reliability feedback applied")
}
