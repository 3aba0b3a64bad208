package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
)

//go:embed schema.sql
var schemaSQL string

// TxPool is the subset of *pgxpool.Pool the store needs.
type TxPool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store runs queries against Postgres, either directly on the pool or
// inside a transaction.
type Store struct {
	pool    TxPool
	queries *Queries
}

func NewStore(pool TxPool) *Store {
	return &Store{pool: pool, queries: New(pool)}
}

// Querier returns queries that run outside any transaction.
func (s *Store) Querier() Querier {
	return s.queries
}

// InTx runs fn inside one transaction. The transaction commits only if fn
// returns nil; any error or panic rolls everything back.
func (s *Store) InTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
