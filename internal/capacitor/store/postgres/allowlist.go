package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Allowlist stores monitored accounts in allowed_account_ids.
type Allowlist struct {
	pool *pgxpool.Pool
}

func NewAllowlist(pool *pgxpool.Pool) *Allowlist {
	return &Allowlist{pool: pool}
}

func (s *Allowlist) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT account_id FROM allowed_account_ids ORDER BY account_id`)
	if err != nil {
		return nil, fmt.Errorf("list allowed accounts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan allowed account: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Allowlist) Exists(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM allowed_account_ids WHERE account_id = $1)`,
		accountID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check allowed account: %w", err)
	}
	return exists, nil
}

func (s *Allowlist) Insert(ctx context.Context, accountID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO allowed_account_ids (account_id) VALUES ($1) ON CONFLICT (account_id) DO NOTHING`,
		accountID,
	)
	if err != nil {
		return fmt.Errorf("insert allowed account: %w", err)
	}
	return nil
}
