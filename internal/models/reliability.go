package models

import "time"

// Reliability weight bounds
const (
	MinReliabilityWeight     = 0.5
	MaxReliabilityWeight     = 2.0
	DefaultReliabilityWeight = 1.0
)

// ReliabilityProfile is the long-lived trust state of one engine
type ReliabilityProfile struct {
	SourceID       string    `db:"source_id" json:"source_id" validate:"required"`
	Weight         float64   `db:"weight" json:"weight" validate:"gte=0.5,lte=2"`
	ROI            float64   `db:"roi" json:"roi"`
	HasROI         bool      `db:"has_roi" json:"has_roi"`
	DriftErrorRate float64   `db:"drift_error_rate" json:"drift_error_rate" validate:"gte=0,lte=1"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
