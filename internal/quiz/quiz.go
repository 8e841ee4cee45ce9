// Package quiz derives multiple-choice quizzes from published content and
// scores learner submissions for a decaying coin reward.
package quiz

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"
)

// QuestionCount is the fixed number of questions per quiz.
const QuestionCount = 5

// OptionCount is the fixed number of choices per question.
const OptionCount = 4

// ErrNotFound is returned when a quiz does not exist.
var ErrNotFound = errors.New("quiz not found")

// Question is one multiple-choice question with exactly four options,
// presented in the same a) to d) order the answer letters refer to.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Quiz is a derived artifact of one content item: five questions and the
// five correct answer letters in question order.
type Quiz struct {
	ID        string     `json:"id"`
	ContentID string     `json:"jobId"` // legacy wire name kept for existing clients
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	Answers   []string   `json:"answers"` // letters "a".."d"
	CreatedBy string     `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
}

// LetterForIndex maps a zero-based option index to its answer letter,
// 0 being "a" and 3 being "d". The generator labels options in the same
// order, so this mapping is the single point where client indices meet
// stored letters.
func LetterForIndex(index int) string {
	return string(rune('a' + index))
}

// Store persists quizzes.
type Store interface {
	Create(ctx context.Context, q Quiz) (string, error)
	Get(ctx context.Context, id string) (*Quiz, error)
	ListByContent(ctx context.Context, contentID string) ([]Quiz, error)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	quizzes map[string]*Quiz
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory quiz store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quizzes: make(map[string]*Quiz),
	}
}

func (s *MemoryStore) Create(_ context.Context, q Quiz) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q.ID == "" {
		q.ID = generateID()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	s.quizzes[q.ID] = &q
	return q.ID, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quizzes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	copied := *q
	return &copied, nil
}

func (s *MemoryStore) ListByContent(_ context.Context, contentID string) ([]Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var quizzes []Quiz
	for _, q := range s.quizzes {
		if q.ContentID == contentID {
			quizzes = append(quizzes, *q)
		}
	}
	return quizzes, nil
}

func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
