package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/clever-tipster/internal/models"
)

// ReliabilityRepository defines the interface for reliability profile access
type ReliabilityRepository interface {
	ListProfiles(ctx context.Context) ([]*models.ReliabilityProfile, error)
	GetProfile(ctx context.Context, sourceID string) (*models.ReliabilityProfile, error)
	UpsertProfile(ctx context.Context, profile *models.ReliabilityProfile) error
}

// DecisionRepository defines the interface for decision record access
type DecisionRepository interface {
	SaveBatch(ctx context.Context, result *models.BatchResult) (int64, error)
	GetByRunID(ctx context.Context, runID uuid.UUID) ([]models.DecisionRecord, error)
	GetLatestByMatch(ctx context.Context, matchID string) (*models.DecisionRecord, error)
}
