package learner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation. RecordAttempt
// runs in a transaction holding a row lock on the learner, which serializes
// concurrent submissions from the same learner.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed learner store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

// Schema returns the DDL for the learner tables. Exposed for tests and
// migration tooling.
func Schema() string {
	return `
CREATE TABLE IF NOT EXISTS learners (
	id TEXT PRIMARY KEY,
	wallet INTEGER NOT NULL DEFAULT 0 CHECK (wallet >= 0)
);

CREATE TABLE IF NOT EXISTS attempts (
	id BIGSERIAL PRIMARY KEY,
	learner_id TEXT NOT NULL REFERENCES learners(id),
	content_id TEXT NOT NULL,
	attempt INTEGER NOT NULL CHECK (attempt >= 1),
	score INTEGER NOT NULL CHECK (score BETWEEN 0 AND 5),
	coins_given BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS attempts_learner_content_idx ON attempts (learner_id, content_id);
`
}

func (s *PostgresStore) Profile(ctx context.Context, learnerID string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	p := &Profile{LearnerID: learnerID, Solved: []Attempt{}}

	err := s.pool.QueryRow(ctx,
		`SELECT wallet FROM learners WHERE id = $1`, learnerID,
	).Scan(&p.Wallet)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT content_id, attempt, score, coins_given
		 FROM attempts
		 WHERE learner_id = $1
		 ORDER BY created_at ASC`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ContentID, &a.Attempts, &a.Score, &a.CoinsGiven); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		p.Solved = append(p.Solved, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) HasPerfectScore(ctx context.Context, learnerID, contentID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var solved bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM attempts
			WHERE learner_id = $1 AND content_id = $2 AND score = $3
		)`,
		learnerID, contentID, PerfectScore,
	).Scan(&solved)
	if err != nil {
		return false, fmt.Errorf("check solved: %w", err)
	}
	return solved, nil
}

func (s *PostgresStore) RecordAttempt(ctx context.Context, learnerID, contentID string, score int, coinsFor func(int) (int, error)) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Outcome{}, fmt.Errorf("begin attempt tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Ensure the learner row exists, then lock it. The lock serializes all
	// concurrent attempts by this learner until commit.
	if _, err := tx.Exec(ctx,
		`INSERT INTO learners (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`,
		learnerID,
	); err != nil {
		return Outcome{}, fmt.Errorf("ensure learner: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`SELECT 1 FROM learners WHERE id = $1 FOR UPDATE`, learnerID,
	); err != nil {
		return Outcome{}, fmt.Errorf("lock learner: %w", err)
	}

	var prior int
	var solved bool
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE score = $3) > 0
		 FROM attempts
		 WHERE learner_id = $1 AND content_id = $2`,
		learnerID, contentID, PerfectScore,
	).Scan(&prior, &solved); err != nil {
		return Outcome{}, fmt.Errorf("count attempts: %w", err)
	}
	if solved {
		return Outcome{}, fmt.Errorf("%w: content %s", ErrAlreadySolved, contentID)
	}

	attempt := Attempt{
		ContentID: contentID,
		Attempts:  prior + 1,
		Score:     score,
	}

	var coins int
	if score == PerfectScore {
		coins, err = coinsFor(attempt.Attempts)
		if err != nil {
			return Outcome{}, fmt.Errorf("compute reward: %w", err)
		}
		attempt.CoinsGiven = coins > 0
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO attempts (learner_id, content_id, attempt, score, coins_given)
		 VALUES ($1, $2, $3, $4, $5)`,
		learnerID, contentID, attempt.Attempts, attempt.Score, attempt.CoinsGiven,
	); err != nil {
		return Outcome{}, fmt.Errorf("insert attempt: %w", err)
	}

	if coins > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE learners SET wallet = wallet + $2 WHERE id = $1`,
			learnerID, coins,
		); err != nil {
			return Outcome{}, fmt.Errorf("credit wallet: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Outcome{}, fmt.Errorf("commit attempt tx: %w", err)
	}
	return Outcome{Attempt: attempt, Coins: coins}, nil
}
