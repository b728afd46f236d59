// Package postgres persists log documents and the allowlist in PostgreSQL.
// Documents live in a single JSONB table addressed by (namespace, collection),
// which mirrors the database-per-account, collection-per-type layout of a
// document store.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"capacitor/pkg/platform/sentinel"
)

const schema = `
CREATE TABLE IF NOT EXISTS capacitor_documents (
	id BIGSERIAL PRIMARY KEY,
	namespace TEXT NOT NULL,
	collection TEXT NOT NULL,
	cap_id TEXT NOT NULL,
	body JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS capacitor_documents_cap_id_idx
	ON capacitor_documents (namespace, collection, cap_id);
CREATE TABLE IF NOT EXISTS allowed_account_ids (
	account_id TEXT PRIMARY KEY
);
`

// Migrate creates the tables used by Documents and Allowlist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// classify marks data and integrity violations as permanent.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code[:2] {
		case "22", "23":
			return fmt.Errorf("%w: %w", sentinel.ErrRejected, err)
		}
	}
	return err
}
