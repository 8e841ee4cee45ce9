package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 10 * time.Minute

// PublicQuiz is the learner-facing quiz shape with answers stripped.
type PublicQuiz struct {
	QuizID    string     `json:"quizId"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Public strips the answers from a quiz.
func (q *Quiz) Public() PublicQuiz {
	return PublicQuiz{
		QuizID:    q.ID,
		Title:     q.Title,
		Questions: q.Questions,
	}
}

// Cache keeps learner-facing quiz payloads in Redis. Quizzes are read-only
// after creation, so the only invalidation point is regeneration.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a quiz cache. ttl of zero uses the default.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func contentKey(contentID string) string {
	return fmt.Sprintf("quiz:content:%s", contentID)
}

// GetPublic returns the cached quizzes for a content id, if present.
func (c *Cache) GetPublic(ctx context.Context, contentID string) ([]PublicQuiz, bool) {
	data, err := c.client.Get(ctx, contentKey(contentID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("quiz cache read failed", "content_id", contentID, "error", err)
		}
		return nil, false
	}

	var quizzes []PublicQuiz
	if err := json.Unmarshal(data, &quizzes); err != nil {
		slog.Warn("quiz cache payload corrupt, dropping", "content_id", contentID, "error", err)
		c.InvalidateContent(ctx, contentID)
		return nil, false
	}
	return quizzes, true
}

// SetPublic caches the quizzes for a content id.
func (c *Cache) SetPublic(ctx context.Context, contentID string, quizzes []PublicQuiz) {
	data, err := json.Marshal(quizzes)
	if err != nil {
		slog.Warn("quiz cache encode failed", "content_id", contentID, "error", err)
		return
	}
	if err := c.client.Set(ctx, contentKey(contentID), data, c.ttl).Err(); err != nil {
		slog.Warn("quiz cache write failed", "content_id", contentID, "error", err)
	}
}

// InvalidateContent drops the cached quizzes for a content id.
func (c *Cache) InvalidateContent(ctx context.Context, contentID string) {
	if err := c.client.Del(ctx, contentKey(contentID)).Err(); err != nil {
		slog.Warn("quiz cache invalidate failed", "content_id", contentID, "error", err)
	}
}
