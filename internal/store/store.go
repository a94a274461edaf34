package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tmater/boostprobe/internal/proto"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store persists run summaries and their probe results.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres at dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if err := migrateUp(dsn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	log.Printf("store: database ready")
	return &Store{db: db}, nil
}

// migrateUp runs on its own connection; closing the migrator closes it.
func migrateUp(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		db.Close()
		return err
	}
	drv, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		db.Close()
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", drv)
	if err != nil {
		db.Close()
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists a run summary and all of its results in one transaction.
func (s *Store) SaveRun(ctx context.Context, sum proto.RunSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, target, started_at, finished_at, passed)
		VALUES ($1, $2, $3, $4, $5)
	`, sum.RunID, sum.Target, sum.StartedAt, sum.FinishedAt, sum.Passed)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, r := range sum.Results {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO probe_results (run_id, seq, case_name, size_kb, expect, payload_bytes,
				status_code, actual, matched, detail, body, latency_ms, checked_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`,
			sum.RunID,
			i,
			r.Case.Name,
			r.Case.SizeKB,
			string(r.Case.Expect),
			r.PayloadSize,
			r.StatusCode,
			string(r.Actual),
			r.Matched,
			r.Detail,
			r.Body,
			r.Latency.Milliseconds(),
			r.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert result %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// RunRecord is a stored run with its per-case tallies.
type RunRecord struct {
	RunID      string
	Target     string
	StartedAt  time.Time
	FinishedAt time.Time
	Passed     bool
	Matched    int
	Failed     int
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.target, r.started_at, r.finished_at, r.passed,
			COUNT(p.id) FILTER (WHERE p.matched),
			COUNT(p.id) FILTER (WHERE NOT p.matched)
		FROM runs r
		LEFT JOIN probe_results p ON p.run_id = r.run_id
		GROUP BY r.run_id
		ORDER BY r.started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.RunID, &r.Target, &r.StartedAt, &r.FinishedAt, &r.Passed, &r.Matched, &r.Failed); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunResults returns the results of one run in the order they were probed.
func (s *Store) RunResults(ctx context.Context, runID string) ([]proto.ProbeResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT case_name, size_kb, expect, payload_bytes, status_code, actual, matched, detail, body, latency_ms, checked_at
		FROM probe_results
		WHERE run_id = $1
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []proto.ProbeResult
	for rows.Next() {
		var (
			r         proto.ProbeResult
			expect    string
			actual    string
			latencyMS int64
		)
		err := rows.Scan(&r.Case.Name, &r.Case.SizeKB, &expect, &r.PayloadSize, &r.StatusCode,
			&actual, &r.Matched, &r.Detail, &r.Body, &latencyMS, &r.Timestamp)
		if err != nil {
			return nil, err
		}
		r.Case.Expect = proto.Outcome(expect)
		r.Actual = proto.Outcome(actual)
		r.Latency = time.Duration(latencyMS) * time.Millisecond
		results = append(results, r)
	}
	return results, rows.Err()
}

// EvictRunsBefore deletes runs started before cutoff, and their results.
// Returns the number of runs deleted.
func (s *Store) EvictRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
