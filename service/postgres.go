package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/priceloka/backend/model"
)

// PostgresStore is the durable SubmissionStore.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// EnsureSchema creates the submissions table and the product-code and
// timestamp indexes used by the scan queries.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS submissions (
			id          TEXT PRIMARY KEY,
			contributor TEXT NOT NULL,
			town        TEXT NOT NULL,
			region      TEXT NOT NULL DEFAULT '',
			country     TEXT NOT NULL DEFAULT '',
			client_time BIGINT NOT NULL,
			received_at TIMESTAMPTZ NOT NULL,
			code        TEXT NOT NULL,
			name        TEXT NOT NULL,
			quality     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_submissions_code ON submissions (code);
		CREATE INDEX IF NOT EXISTS idx_submissions_client_time ON submissions (client_time);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, sub model.Submission) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO submissions (id, contributor, town, region, country, client_time, received_at, code, name, quality)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sub.ID, sub.Contributor, sub.Town, sub.Region, sub.Country,
		sub.ClientTime, sub.ReceivedAt, sub.Code, sub.Name, sub.Quality,
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) SubmittedSince(ctx context.Context, since int64) ([]model.Submission, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, contributor, town, region, country, client_time, received_at, code, name, quality
		 FROM submissions WHERE client_time >= $1`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

func (s *PostgresStore) ByProduct(ctx context.Context, code string) ([]model.Submission, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, contributor, town, region, country, client_time, received_at, code, name, quality
		 FROM submissions WHERE code = $1`,
		code,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSubmissions(rows pgxRows) ([]model.Submission, error) {
	var result []model.Submission
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(
			&sub.ID, &sub.Contributor, &sub.Town, &sub.Region, &sub.Country,
			&sub.ClientTime, &sub.ReceivedAt, &sub.Code, &sub.Name, &sub.Quality,
		); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}
