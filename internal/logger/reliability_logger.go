// Package logger provides reliability feedback logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// ReliabilityLogger provides dedicated logging for engine reliability updates.
type ReliabilityLogger struct {
	*logrus.Entry
}

// NewReliabilityLogger creates a new reliability logger.
func NewReliabilityLogger(baseLogger *logrus.Logger) *ReliabilityLogger {
	return &ReliabilityLogger{
		Entry: baseLogger.WithField("component", "reliability"),
	}
}

// LogROIUpdate logs an ROI feedback signal and the resulting weight.
func (rl *ReliabilityLogger) LogROIUpdate(sourceID string, roi, weight float64) {
	rl.WithFields(logrus.Fields{
		"source_id": sourceID,
		"roi":       roi,
		"weight":    weight,
	}).Info("Engine ROI updated")
}

// LogDriftPenalty logs a drift penalty applied to an engine.
func (rl *ReliabilityLogger) LogDriftPenalty(sourceID string, errorRate, weight float64) {
	rl.WithFields(logrus.Fields{
		"source_id":  sourceID,
		"error_rate": errorRate,
		"weight":     weight,
	}).Warn("Engine drift penalty applied")
}

// LogProfilesRestored logs profiles loaded from persistence.
func (rl *ReliabilityLogger) LogProfilesRestored(count int) {
	rl.WithFields(logrus.Fields{
		"profiles": count,
	}).Info("Reliability profiles restored")
}
