/**
 * PostgreSQL result store
 *
 * Optional persistence of benchmark results, one row per configuration
 * per run. The benchmark runs fine without it.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/nlpforge/raglab/internal/bench"
)

// PostgresStore persists benchmark results.
type PostgresStore struct {
	db *sql.DB
}

const createResultsTable = `
	CREATE TABLE IF NOT EXISTS benchmark_results (
		id             BIGSERIAL PRIMARY KEY,
		run_id         UUID NOT NULL,
		config_name    TEXT NOT NULL,
		method         TEXT NOT NULL,
		num_chunks     INTEGER NOT NULL,
		query_time_ms  BIGINT NOT NULL,
		num_sources    INTEGER NOT NULL,
		avg_similarity NUMERIC(7,4) NOT NULL,
		response       TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// NewPostgresStore connects to PostgreSQL and ensures the results table
// exists.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, createResultsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure results table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// SaveResult stores one configuration's result under a run ID.
func (p *PostgresStore) SaveResult(ctx context.Context, runID string, result bench.Result) error {
	if runID == "" {
		return fmt.Errorf("run ID is required")
	}

	query := `
		INSERT INTO benchmark_results (
			run_id, config_name, method, num_chunks,
			query_time_ms, num_sources, avg_similarity, response
		) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7::NUMERIC(7,4), $8)
	`

	_, err := p.db.ExecContext(
		ctx,
		query,
		runID,
		result.ConfigName,
		result.Method,
		result.NumChunks,
		result.QueryTime.Milliseconds(),
		result.NumSources,
		sanitizeSimilarity(result.AvgSimilarity),
		result.Response,
	)
	if err != nil {
		return fmt.Errorf("failed to store result (config=%s): %w", result.ConfigName, err)
	}

	return nil
}

// RunSummary is one persisted run with its best configuration.
type RunSummary struct {
	RunID          string
	Configurations int
	BestConfig     string
	BestSimilarity float64
	CreatedAt      time.Time
}

// ListRuns returns the most recent runs, newest first.
func (p *PostgresStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit < 1 {
		limit = 10
	}

	query := `
		SELECT DISTINCT ON (run_id)
			run_id,
			COUNT(*) OVER (PARTITION BY run_id),
			FIRST_VALUE(config_name) OVER w,
			FIRST_VALUE(avg_similarity) OVER w,
			MIN(created_at) OVER (PARTITION BY run_id)
		FROM benchmark_results
		WINDOW w AS (PARTITION BY run_id ORDER BY avg_similarity DESC, id ASC)
		ORDER BY run_id, created_at DESC
		LIMIT $1
	`

	rows, err := p.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		if err := rows.Scan(&run.RunID, &run.Configurations, &run.BestConfig, &run.BestSimilarity, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection.
func (p *PostgresStore) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// sanitizeSimilarity bounds precision so float64 noise like
// 0.9632000000000001 does not trip NUMERIC casting.
func sanitizeSimilarity(v float64) float64 {
	if v < -1.0 {
		return -1.0
	}
	if v > 1.0 {
		return 1.0
	}
	return float64(int(v*10000+0.5)) / 10000
}
