package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"phalanx/internal/domain/models"
)

// VerdictRepository handles verdict persistence. One row per message ID;
// later verdicts replace earlier ones.
type VerdictRepository struct {
	pool *pgxpool.Pool
}

// NewVerdictRepository creates a new verdict repository
func NewVerdictRepository(pool *pgxpool.Pool) *VerdictRepository {
	return &VerdictRepository{pool: pool}
}

// Upsert stores a verdict, replacing any previous verdict for the message.
func (r *VerdictRepository) Upsert(ctx context.Context, v *models.Verdict) error {
	reasons, err := json.Marshal(v.Reasons)
	if err != nil {
		return fmt.Errorf("failed to marshal reasons: %w", err)
	}

	query := `
		INSERT INTO verdicts (message_id, level, score, reasons, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (message_id)
		DO UPDATE SET level = $2, score = $3, reasons = $4, created_at = $5`

	if _, err := r.pool.Exec(ctx, query, v.MessageID, v.Level, v.Score, reasons, v.CreatedAt); err != nil {
		return fmt.Errorf("failed to upsert verdict: %w", err)
	}
	return nil
}

// GetByMessageID retrieves the verdict for one message
func (r *VerdictRepository) GetByMessageID(ctx context.Context, messageID uuid.UUID) (*models.Verdict, error) {
	query := `
		SELECT message_id, level, score, reasons, created_at
		FROM verdicts
		WHERE message_id = $1`

	var v models.Verdict
	var reasons []byte
	err := r.pool.QueryRow(ctx, query, messageID).Scan(
		&v.MessageID, &v.Level, &v.Score, &reasons, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verdict: %w", err)
	}
	if err := json.Unmarshal(reasons, &v.Reasons); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reasons: %w", err)
	}
	return &v, nil
}

// ListRecent returns the most recent verdicts, newest first.
func (r *VerdictRepository) ListRecent(ctx context.Context, limit int) ([]models.Verdict, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `
		SELECT message_id, level, score, reasons, created_at
		FROM verdicts
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list verdicts: %w", err)
	}
	defer rows.Close()

	var verdicts []models.Verdict
	for rows.Next() {
		var v models.Verdict
		var reasons []byte
		if err := rows.Scan(&v.MessageID, &v.Level, &v.Score, &reasons, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		if err := json.Unmarshal(reasons, &v.Reasons); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reasons: %w", err)
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, rows.Err()
}
