package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/clever-tipster/internal/database"
	"github.com/yourusername/clever-tipster/internal/models"
	"github.com/yourusername/clever-tipster/internal/reliability"
)

var (
	_ reliability.Persistence = (*PostgresReliabilityRepository)(nil)
	_ ReliabilityRepository   = (*PostgresReliabilityRepository)(nil)
	_ DecisionRepository      = (*PostgresDecisionRepository)(nil)
)

func TestNewRepositoriesRequiresDB(t *testing.T) {
	_, err := NewRepositories(nil)
	assert.Error(t, err)
}

func TestReliabilityRepositoryRoundTrip(t *testing.T) {
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repo := NewPostgresReliabilityRepository(db)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	updated := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertProfile(ctx, &models.ReliabilityProfile{
		SourceID: "elo", Weight: 1.4, ROI: 0.12, HasROI: true, UpdatedAt: updated,
	}))
	require.NoError(t, repo.UpsertProfile(ctx, &models.ReliabilityProfile{
		SourceID: "xg", Weight: 0.7, DriftErrorRate: 0.3, UpdatedAt: updated,
	}))

	// upsert replaces
	require.NoError(t, repo.UpsertProfile(ctx, &models.ReliabilityProfile{
		SourceID: "elo", Weight: 1.6, ROI: 0.2, HasROI: true, UpdatedAt: updated,
	}))

	profiles, err := repo.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "elo", profiles[0].SourceID)
	assert.InDelta(t, 1.6, profiles[0].Weight, 1e-12)
	assert.Equal(t, "xg", profiles[1].SourceID)
	assert.InDelta(t, 0.3, profiles[1].DriftErrorRate, 1e-12)

	p, err := repo.GetProfile(ctx, "xg")
	require.NoError(t, err)
	assert.False(t, p.HasROI)

	_, err = repo.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReliabilityRepositoryBacksStore(t *testing.T) {
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repo := NewPostgresReliabilityRepository(db)
	ctx := context.Background()

	store := reliability.NewStore(nil)
	require.NoError(t, store.ApplyFeedback(models.FeedbackSignal{SourceID: "a", ROI: models.Float64(0.1)}))
	require.NoError(t, store.ApplyFeedback(models.FeedbackSignal{SourceID: "b", ROI: models.Float64(-0.1)}))
	require.NoError(t, store.Flush(ctx, repo))

	restored := reliability.NewStore(nil)
	require.NoError(t, restored.Restore(ctx, repo))
	assert.InDelta(t, store.Weight("a"), restored.Weight("a"), 1e-12)
	assert.InDelta(t, store.Weight("b"), restored.Weight("b"), 1e-12)
}

func TestDecisionRepositorySaveAndQuery(t *testing.T) {
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repo := NewPostgresDecisionRepository(db)
	ctx := context.Background()

	result := &models.BatchResult{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
		Decisions: []models.DecisionRecord{
			{MatchID: "m2", BestPick: models.OutcomeAway, Probability: 0.4, Odds: 3.1, Market: "1x2"},
			{MatchID: "m1", BestPick: models.OutcomeHome, Probability: 0.72, Odds: 2.0, Eligible: true, Market: "two_way"},
		},
	}

	n, err := repo.SaveBatch(ctx, result)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	records, err := repo.GetByRunID(ctx, result.RunID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "m1", records[0].MatchID)
	assert.Equal(t, models.OutcomeHome, records[0].BestPick)
	assert.True(t, records[0].Eligible)

	latest, err := repo.GetLatestByMatch(ctx, "m2")
	require.NoError(t, err)
	assert.InDelta(t, 3.1, latest.Odds, 1e-12)

	_, err = repo.GetLatestByMatch(ctx, "none")
	assert.ErrorIs(t, err, models.ErrNotFound)

	n, err = repo.SaveBatch(ctx, &models.BatchResult{RunID: uuid.New()})
	require.NoError(t, err)
	assert.Zero(t, n)
}
