// Package postgres persists taught exercise aliases in PostgreSQL so they
// survive restarts. It implements [lexicon.Backend].
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrWong99/gymvox/pkg/lexicon"
)

// Schema is the SQL DDL for the exercise_aliases table. Execute it via
// [Backend.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS exercise_aliases (
    alias      TEXT PRIMARY KEY,
    canonical  TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_exercise_aliases_canonical ON exercise_aliases(canonical);
`

// DB is the database interface used by [Backend]. Both *pgxpool.Pool and
// *pgx.Conn satisfy it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Backend is a [lexicon.Backend] backed by PostgreSQL.
type Backend struct {
	db DB
}

var _ lexicon.Backend = (*Backend)(nil)

// New returns a Backend using db. The caller is responsible for calling
// [Backend.Migrate] before the first query.
func New(db DB) *Backend {
	return &Backend{db: db}
}

// Migrate executes [Schema].
func (b *Backend) Migrate(ctx context.Context) error {
	if _, err := b.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// LoadAliases implements [lexicon.Backend].
func (b *Backend) LoadAliases(ctx context.Context) (map[string]string, error) {
	const query = `SELECT alias, canonical FROM exercise_aliases ORDER BY alias`

	rows, err := b.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: load aliases: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var alias, canonical string
		if err := rows.Scan(&alias, &canonical); err != nil {
			return nil, fmt.Errorf("postgres: load aliases scan: %w", err)
		}
		out[alias] = canonical
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load aliases: %w", err)
	}
	return out, nil
}

// SaveAlias implements [lexicon.Backend]. An existing alias is overwritten.
func (b *Backend) SaveAlias(ctx context.Context, alias, canonical string) error {
	const query = `
		INSERT INTO exercise_aliases (alias, canonical)
		VALUES ($1, $2)
		ON CONFLICT (alias) DO UPDATE SET
			canonical = EXCLUDED.canonical,
			updated_at = now()`

	if _, err := b.db.Exec(ctx, query, alias, canonical); err != nil {
		return fmt.Errorf("postgres: save alias %q: %w", alias, err)
	}
	return nil
}

// DeleteAlias implements [lexicon.Backend]. Deleting a missing alias is not
// an error.
func (b *Backend) DeleteAlias(ctx context.Context, alias string) error {
	const query = `DELETE FROM exercise_aliases WHERE alias = $1`
	if _, err := b.db.Exec(ctx, query, alias); err != nil {
		return fmt.Errorf("postgres: delete alias %q: %w", alias, err)
	}
	return nil
}
