package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories bundles all repositories over one pool
type Repositories struct {
	Rules    *RuleRepository
	Verdicts *VerdictRepository
}

// New creates all repositories
func New(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Rules:    NewRuleRepository(pool),
		Verdicts: NewVerdictRepository(pool),
	}
}
