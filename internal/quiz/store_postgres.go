package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation. Questions are
// stored as JSONB, answers as a text array.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed quiz store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

// Schema returns the DDL for the quizzes table. Exposed for tests and
// migration tooling.
func Schema() string {
	return `
CREATE TABLE IF NOT EXISTS quizzes (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	content_id TEXT NOT NULL,
	title TEXT NOT NULL,
	questions JSONB NOT NULL,
	answers TEXT[] NOT NULL,
	created_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS quizzes_content_idx ON quizzes (content_id);
`
}

func (s *PostgresStore) Create(ctx context.Context, q Quiz) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return "", fmt.Errorf("encode questions: %w", err)
	}

	createdAt := q.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var id string
	err = s.pool.QueryRow(ctx,
		`INSERT INTO quizzes (content_id, title, questions, answers, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id::text`,
		q.ContentID,
		q.Title,
		questions,
		q.Answers,
		q.CreatedBy,
		createdAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create quiz: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Quiz, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`SELECT id::text, content_id, title, questions, answers, created_by, created_at
		 FROM quizzes WHERE id = $1::uuid LIMIT 1`, id)

	q, err := scanQuiz(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return q, nil
}

func (s *PostgresStore) ListByContent(ctx context.Context, contentID string) ([]Quiz, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id::text, content_id, title, questions, answers, created_by, created_at
		 FROM quizzes WHERE content_id = $1 ORDER BY created_at ASC`,
		contentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quizzes: %w", err)
	}
	return quizzes, nil
}

func scanQuiz(row pgx.Row) (*Quiz, error) {
	var q Quiz
	var questions []byte
	if err := row.Scan(
		&q.ID,
		&q.ContentID,
		&q.Title,
		&questions,
		&q.Answers,
		&q.CreatedBy,
		&q.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &q.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return &q, nil
}
