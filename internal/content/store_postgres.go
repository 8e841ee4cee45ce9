package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed content store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

// Schema returns the DDL for the contents table. Exposed for tests and
// migration tooling.
func Schema() string {
	return `
CREATE TABLE IF NOT EXISTS contents (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	topic_name TEXT NOT NULL,
	subject_name TEXT NOT NULL,
	standard INTEGER NOT NULL,
	file TEXT NOT NULL DEFAULT '',
	video TEXT,
	file_signature TEXT,
	summary TEXT NOT NULL DEFAULT '',
	verified BOOLEAN NOT NULL DEFAULT FALSE,
	quizzes TEXT[] NOT NULL DEFAULT '{}',
	created_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS contents_created_by_idx ON contents (created_by);
CREATE INDEX IF NOT EXISTS contents_standard_verified_idx ON contents (standard, verified);
`
}

const contentColumns = `id::text, topic_name, subject_name, standard, file, COALESCE(video, ''),
	COALESCE(file_signature, ''), summary, verified, quizzes, created_by, created_at`

func (s *PostgresStore) Create(ctx context.Context, item Item) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO contents (topic_name, subject_name, standard, file, video, file_signature, summary, verified, quizzes, created_by, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11)
		 RETURNING id::text`,
		item.TopicName,
		item.SubjectName,
		item.Standard,
		item.File,
		item.Video,
		item.FileSignature,
		item.Summary,
		item.Verified,
		item.Quizzes,
		item.CreatedBy,
		createdAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create content: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`SELECT `+contentColumns+` FROM contents WHERE id = $1::uuid LIMIT 1`, id)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get content: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) Update(ctx context.Context, item Item) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`UPDATE contents
		 SET topic_name = $2, subject_name = $3, standard = $4, file = $5,
		     video = NULLIF($6, ''), file_signature = NULLIF($7, ''),
		     summary = $8, verified = $9, quizzes = $10
		 WHERE id = $1::uuid`,
		item.ID,
		item.TopicName,
		item.SubjectName,
		item.Standard,
		item.File,
		item.Video,
		item.FileSignature,
		item.Summary,
		item.Verified,
		item.Quizzes,
	)
	if err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, item.ID)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx, `DELETE FROM contents WHERE id = $1::uuid`, id)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) AppendQuiz(ctx context.Context, id, quizID string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`UPDATE contents SET quizzes = array_append(quizzes, $2) WHERE id = $1::uuid`,
		id, quizID)
	if err != nil {
		return fmt.Errorf("append quiz: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+contentColumns+`
		 FROM contents
		 WHERE ($1 = '' OR created_by = $1)
		   AND ($2 = 0 OR standard = $2)
		   AND (NOT $3 OR verified)
		 ORDER BY created_at DESC`,
		filter.CreatedBy,
		filter.Standard,
		filter.VerifiedOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contents: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) Stats(ctx context.Context, createdBy string) (Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var stats Stats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE verified), COUNT(*) FILTER (WHERE NOT verified)
		 FROM contents WHERE created_by = $1`,
		createdBy,
	).Scan(&stats.Verified, &stats.Unverified)
	if err != nil {
		return Stats{}, fmt.Errorf("content stats: %w", err)
	}
	return stats, nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	if err := row.Scan(
		&item.ID,
		&item.TopicName,
		&item.SubjectName,
		&item.Standard,
		&item.File,
		&item.Video,
		&item.FileSignature,
		&item.Summary,
		&item.Verified,
		&item.Quizzes,
		&item.CreatedBy,
		&item.CreatedAt,
	); err != nil {
		return nil, err
	}
	if item.Quizzes == nil {
		item.Quizzes = []string{}
	}
	return &item, nil
}
