package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"phalanx/internal/domain/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// RuleRepository handles allow/block rule persistence
type RuleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

// Create inserts a new rule
func (r *RuleRepository) Create(ctx context.Context, rule *models.AllowBlockRule) (*models.AllowBlockRule, error) {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO allow_block_rules (id, type, value, action, priority, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		rule.ID, rule.Type, rule.Value, rule.Action, rule.Priority,
		nullText(rule.Note), rule.CreatedAt,
	).Scan(&rule.ID, &rule.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	return rule, nil
}

// GetByID retrieves a rule by ID
func (r *RuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AllowBlockRule, error) {
	query := `
		SELECT id, type, value, action, priority, note, created_at
		FROM allow_block_rules
		WHERE id = $1`

	rule, err := scanRule(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rule, err
}

// List retrieves all rules ordered by priority
func (r *RuleRepository) List(ctx context.Context) ([]models.AllowBlockRule, error) {
	query := `
		SELECT id, type, value, action, priority, note, created_at
		FROM allow_block_rules
		ORDER BY priority DESC, created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []models.AllowBlockRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

// Delete removes a rule
func (r *RuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM allow_block_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRule(row pgx.Row) (*models.AllowBlockRule, error) {
	var rule models.AllowBlockRule
	var note pgtype.Text

	err := row.Scan(&rule.ID, &rule.Type, &rule.Value, &rule.Action,
		&rule.Priority, &note, &rule.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}
	rule.Note = note.String
	return &rule, nil
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
