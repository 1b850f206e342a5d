package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/clever-tipster/internal/database"
	"github.com/yourusername/clever-tipster/internal/models"
)

var decisionColumns = []string{
	"run_id", "match_id", "league", "market", "best_pick", "probability", "correction",
	"edge_score", "value_index", "ev_home", "ev_draw", "ev_away", "odds", "confidence",
	"risk", "stake_fraction", "eligible", "created_at",
}

// PostgresDecisionRepository implements DecisionRepository for PostgreSQL
type PostgresDecisionRepository struct {
	db *database.DB
}

// NewPostgresDecisionRepository creates a new decision record repository
func NewPostgresDecisionRepository(db *database.DB) *PostgresDecisionRepository {
	return &PostgresDecisionRepository{db: db}
}

// SaveBatch stores every decision of a run using COPY
func (d *PostgresDecisionRepository) SaveBatch(ctx context.Context, result *models.BatchResult) (int64, error) {
	if len(result.Decisions) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(result.Decisions))
	for i, rec := range result.Decisions {
		rows[i] = []any{
			result.RunID, rec.MatchID, rec.League, rec.Market, string(rec.BestPick), rec.Probability,
			rec.Correction, rec.EdgeScore, rec.ValueIndex, rec.EVHome, rec.EVDraw, rec.EVAway,
			rec.Odds, rec.Confidence, rec.Risk, rec.StakeFraction, rec.Eligible, result.StartedAt,
		}
	}

	count, err := d.db.GetPool().CopyFrom(ctx, pgx.Identifier{"decision_records"}, decisionColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to batch insert decision records: %w", err)
	}
	if count != int64(len(rows)) {
		return count, fmt.Errorf("inserted %d rows, expected %d", count, len(rows))
	}
	return count, nil
}

// GetByRunID retrieves the decisions of one run ordered by match id
func (d *PostgresDecisionRepository) GetByRunID(ctx context.Context, runID uuid.UUID) ([]models.DecisionRecord, error) {
	query := `
		SELECT match_id, league, market, best_pick, probability, correction, edge_score, value_index,
		       ev_home, ev_draw, ev_away, odds, confidence, risk, stake_fraction, eligible
		FROM decision_records
		WHERE run_id = $1
		ORDER BY match_id
	`

	rows, err := d.db.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query decision records: %w", err)
	}
	defer rows.Close()

	var records []models.DecisionRecord
	for rows.Next() {
		rec, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// GetLatestByMatch retrieves the most recent decision for a match
func (d *PostgresDecisionRepository) GetLatestByMatch(ctx context.Context, matchID string) (*models.DecisionRecord, error) {
	query := `
		SELECT match_id, league, market, best_pick, probability, correction, edge_score, value_index,
		       ev_home, ev_draw, ev_away, odds, confidence, risk, stake_fraction, eligible
		FROM decision_records
		WHERE match_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	rec, err := scanDecision(d.db.QueryRow(ctx, query, matchID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return rec, err
}

func scanDecision(row pgx.Row) (*models.DecisionRecord, error) {
	rec := &models.DecisionRecord{}
	var pick string
	err := row.Scan(
		&rec.MatchID, &rec.League, &rec.Market, &pick, &rec.Probability, &rec.Correction,
		&rec.EdgeScore, &rec.ValueIndex, &rec.EVHome, &rec.EVDraw, &rec.EVAway, &rec.Odds,
		&rec.Confidence, &rec.Risk, &rec.StakeFraction, &rec.Eligible,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan decision record: %w", err)
	}
	rec.BestPick = models.Outcome(pick)
	return rec, nil
}
