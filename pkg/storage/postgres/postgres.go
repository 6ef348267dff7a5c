// Package postgres implements storage.RunStore on PostgreSQL via pgx.
// The single run record lives in an upserted one-row table; error records
// are insert-only. Suitable when the gateway runs replicated and records
// must outlive any single instance.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
	"github.com/taskpilot-dev/taskpilot/pkg/storage"
)

// Store is a pgx-backed RunStore.
type Store struct {
	pool *pgxpool.Pool
}

// New connects, verifies the connection and optionally migrates.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.applyDefaults()
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if cfg.MigrateOnStart {
		if err := migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &Store{pool: pool}, nil
}

// SaveRunRecord implements storage.RunStore.
func (s *Store) SaveRunRecord(ctx context.Context, rec *api.RunRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO last_run (id, task, application_type, code, output, updated_at)
		VALUES (1, $1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET
			task = EXCLUDED.task,
			application_type = EXCLUDED.application_type,
			code = EXCLUDED.code,
			output = EXCLUDED.output,
			updated_at = now()`,
		rec.Task, string(rec.ApplicationType), rec.Code, rec.Output)
	if err != nil {
		return fmt.Errorf("saving run record: %w", err)
	}
	return nil
}

// LastRunRecord implements storage.RunStore.
func (s *Store) LastRunRecord(ctx context.Context) (*api.RunRecord, error) {
	var rec api.RunRecord
	var appType string
	err := s.pool.QueryRow(ctx,
		`SELECT task, application_type, code, output FROM last_run WHERE id = 1`).
		Scan(&rec.Task, &appType, &rec.Code, &rec.Output)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNoRuns
		}
		return nil, fmt.Errorf("loading run record: %w", err)
	}
	rec.ApplicationType = api.ApplicationType(appType)
	return &rec, nil
}

// AppendErrorRecord implements storage.RunStore.
func (s *Store) AppendErrorRecord(ctx context.Context, rec api.ErrorRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO error_records (recorded_at, category, detail) VALUES ($1, $2, $3)`,
		rec.Time, string(rec.Category), rec.Detail)
	if err != nil {
		return fmt.Errorf("appending error record: %w", err)
	}
	return nil
}

// ListErrorRecords implements storage.RunStore.
func (s *Store) ListErrorRecords(ctx context.Context, limit int) ([]api.ErrorRecord, error) {
	query := `SELECT recorded_at, category, detail FROM error_records ORDER BY recorded_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing error records: %w", err)
	}
	defer rows.Close()

	var records []api.ErrorRecord
	for rows.Next() {
		var rec api.ErrorRecord
		var category string
		if err := rows.Scan(&rec.Time, &category, &rec.Detail); err != nil {
			return nil, fmt.Errorf("scanning error record: %w", err)
		}
		rec.Category = api.ErrorCategory(category)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating error records: %w", err)
	}
	return records, nil
}

// HealthCheck implements storage.RunStore.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements storage.RunStore.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var _ storage.RunStore = (*Store)(nil)
