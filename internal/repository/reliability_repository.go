package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/clever-tipster/internal/database"
	"github.com/yourusername/clever-tipster/internal/models"
)

// PostgresReliabilityRepository implements ReliabilityRepository for PostgreSQL
type PostgresReliabilityRepository struct {
	db *database.DB
}

// NewPostgresReliabilityRepository creates a new reliability profile repository
func NewPostgresReliabilityRepository(db *database.DB) *PostgresReliabilityRepository {
	return &PostgresReliabilityRepository{db: db}
}

// ListProfiles returns every stored profile ordered by source id
func (r *PostgresReliabilityRepository) ListProfiles(ctx context.Context) ([]*models.ReliabilityProfile, error) {
	query := `
		SELECT source_id, weight, roi, has_roi, drift_error_rate, updated_at
		FROM reliability_profiles
		ORDER BY source_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reliability profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.ReliabilityProfile
	for rows.Next() {
		p := &models.ReliabilityProfile{}
		if err := rows.Scan(&p.SourceID, &p.Weight, &p.ROI, &p.HasROI, &p.DriftErrorRate, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reliability profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// GetProfile retrieves one profile by source id
func (r *PostgresReliabilityRepository) GetProfile(ctx context.Context, sourceID string) (*models.ReliabilityProfile, error) {
	query := `
		SELECT source_id, weight, roi, has_roi, drift_error_rate, updated_at
		FROM reliability_profiles WHERE source_id = $1
	`

	p := &models.ReliabilityProfile{}
	err := r.db.QueryRow(ctx, query, sourceID).Scan(
		&p.SourceID, &p.Weight, &p.ROI, &p.HasROI, &p.DriftErrorRate, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reliability profile: %w", err)
	}
	return p, nil
}

// UpsertProfile inserts or replaces a profile
func (r *PostgresReliabilityRepository) UpsertProfile(ctx context.Context, profile *models.ReliabilityProfile) error {
	query := `
		INSERT INTO reliability_profiles (source_id, weight, roi, has_roi, drift_error_rate, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (source_id) DO UPDATE SET
			weight = EXCLUDED.weight,
			roi = EXCLUDED.roi,
			has_roi = EXCLUDED.has_roi,
			drift_error_rate = EXCLUDED.drift_error_rate,
			updated_at = EXCLUDED.updated_at
	`

	updatedAt := profile.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, query,
		profile.SourceID, profile.Weight, profile.ROI, profile.HasROI, profile.DriftErrorRate, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reliability profile: %w", err)
	}
	return nil
}
