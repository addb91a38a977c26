package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	pgSerializationFailure = "40001"
	pgUniqueViolation      = "23505"

	maxApplyAttempts = 5
)

const schema = `
	CREATE TABLE IF NOT EXISTS ledger_blocks (
		number       BIGSERIAL PRIMARY KEY,
		tx_hash      TEXT NOT NULL UNIQUE,
		method       TEXT NOT NULL,
		caller       TEXT NOT NULL,
		committed_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ledger_state (
		key           TEXT PRIMARY KEY,
		value         BYTEA NOT NULL,
		created_block BIGINT NOT NULL REFERENCES ledger_blocks (number),
		updated_block BIGINT NOT NULL REFERENCES ledger_blocks (number)
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_state_created ON ledger_state (created_block, key);
`

// PostgresStore is a StateStore backed by PostgreSQL. Each block is one
// serializable transaction, so concurrent nodes sharing a database still
// commit at most one registration per key.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore creates the ledger tables if needed and returns the store.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return &PostgresStore{
		pool:   pool,
		logger: logger.With().Str("store", "postgres").Logger(),
	}, nil
}

func (s *PostgresStore) View(ctx context.Context, fn func(StateReader) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("failed to begin view transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	return fn(&pgState{q: tx})
}

func (s *PostgresStore) Apply(ctx context.Context, header BlockHeader, fn func(StateWriter) error) (uint64, error) {
	var lastErr error
	for attempt := 1; attempt <= maxApplyAttempts; attempt++ {
		number, err := s.applyOnce(ctx, header, fn)
		if err == nil {
			return number, nil
		}
		if !isSerializationFailure(err) {
			return 0, err
		}
		lastErr = err
		s.logger.Debug().
			Err(err).
			Str("tx_hash", header.TxHash).
			Int("attempt", attempt).
			Msg("serialization conflict, retrying block")
	}
	return 0, fmt.Errorf("failed to commit block after %d attempts: %w", maxApplyAttempts, lastErr)
}

func (s *PostgresStore) applyOnce(ctx context.Context, header BlockHeader, fn func(StateWriter) error) (uint64, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return 0, fmt.Errorf("failed to begin block transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var number uint64
	err = tx.QueryRow(ctx, `
		INSERT INTO ledger_blocks (tx_hash, method, caller, committed_at)
		VALUES ($1, $2, $3, $4)
		RETURNING number
	`, header.TxHash, header.Method, header.Caller.String(), header.Timestamp).Scan(&number)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, fmt.Errorf("transaction %s already committed: %w", header.TxHash, err)
		}
		return 0, fmt.Errorf("failed to insert block: %w", err)
	}

	if err := fn(&pgState{q: tx, block: number}); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit block: %w", err)
	}

	s.logger.Debug().
		Uint64("block", number).
		Str("tx_hash", header.TxHash).
		Str("method", header.Method).
		Msg("block committed")

	return number, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgSerializationFailure
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgState struct {
	q     querier
	block uint64
}

func (p *pgState) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := p.q.QueryRow(ctx, `SELECT value FROM ledger_state WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read state %q: %w", key, err)
	}
	return value, true, nil
}

func (p *pgState) Scan(ctx context.Context, prefix string) ([]Entry, error) {
	rows, err := p.q.Query(ctx, `
		SELECT key, value
		FROM ledger_state
		WHERE starts_with(key, $1)
		ORDER BY created_block, key
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to scan state %q: %w", prefix, err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.Key, &e.Value)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read state rows %q: %w", prefix, err)
	}
	return entries, nil
}

func (p *pgState) Put(ctx context.Context, key string, value []byte) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO ledger_state (key, value, created_block, updated_block)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_block = EXCLUDED.updated_block
	`, key, value, p.block)
	if err != nil {
		return fmt.Errorf("failed to write state %q: %w", key, err)
	}
	return nil
}

// Summary describes the committed state of a PostgreSQL ledger.
type Summary struct {
	Database      string    `json:"database"`
	Height        uint64    `json:"height"`
	Products      int64     `json:"products"`
	Manufacturers int64     `json:"manufacturers"`
	LastCommit    time.Time `json:"lastCommit,omitzero"`
}

// Inspect reads a Summary without creating the ledger tables.
func Inspect(ctx context.Context, q querier) (Summary, error) {
	var s Summary
	if err := q.QueryRow(ctx, `SELECT current_database()`).Scan(&s.Database); err != nil {
		return Summary{}, fmt.Errorf("failed to query database name: %w", err)
	}

	var lastCommit *time.Time
	err := q.QueryRow(ctx, `SELECT COALESCE(MAX(number), 0), MAX(committed_at) FROM ledger_blocks`).
		Scan(&s.Height, &lastCommit)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to query ledger height: %w", err)
	}
	if lastCommit != nil {
		s.LastCommit = lastCommit.UTC()
	}

	err = q.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE starts_with(key, $1)),
			COUNT(*) FILTER (WHERE starts_with(key, $2))
		FROM ledger_state
	`, productPrefix, manufacturerPrefix).Scan(&s.Products, &s.Manufacturers)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to count ledger records: %w", err)
	}
	return s, nil
}
