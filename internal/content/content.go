// Package content manages uploaded learning material and its publication pipeline.
package content

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when a content item does not exist.
var ErrNotFound = errors.New("content not found")

// Item is one piece of learning material.
type Item struct {
	ID            string    `json:"id"`
	TopicName     string    `json:"topicName"`
	SubjectName   string    `json:"subjectName"`
	Standard      int       `json:"standard"`
	File          string    `json:"file"`
	Video         string    `json:"video,omitempty"`
	FileSignature string    `json:"fileSignature,omitempty"`
	Summary       string    `json:"summary"`
	Verified      bool      `json:"verified"`
	Quizzes       []string  `json:"quizzes"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ListFilter narrows List results.
type ListFilter struct {
	CreatedBy    string // only items by this creator
	Standard     int    // only items for this grade (0 = any)
	VerifiedOnly bool
}

// Stats counts a creator's items by verification state.
type Stats struct {
	Verified   int `json:"verified"`
	Unverified int `json:"unverified"`
}

// Store persists content items.
type Store interface {
	Create(ctx context.Context, item Item) (string, error)
	Get(ctx context.Context, id string) (*Item, error)
	Update(ctx context.Context, item Item) error
	Delete(ctx context.Context, id string) error
	AppendQuiz(ctx context.Context, id, quizID string) error
	List(ctx context.Context, filter ListFilter) ([]Item, error)
	Stats(ctx context.Context, createdBy string) (Stats, error)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	items map[string]*Item
	mu    sync.RWMutex
}

// NewMemoryStore creates a new in-memory content store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*Item),
	}
}

func (s *MemoryStore) Create(_ context.Context, item Item) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = generateID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	if item.Quizzes == nil {
		item.Quizzes = []string{}
	}
	s.items[item.ID] = &item
	return item.ID, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	copied := *item
	copied.Quizzes = append([]string{}, item.Quizzes...)
	return &copied, nil
}

func (s *MemoryStore) Update(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, item.ID)
	}
	copied := item
	copied.Quizzes = append([]string{}, item.Quizzes...)
	s.items[item.ID] = &copied
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) AppendQuiz(_ context.Context, id, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	item.Quizzes = append(item.Quizzes, quizID)
	return nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []Item
	for _, item := range s.items {
		if filter.CreatedBy != "" && item.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.Standard != 0 && item.Standard != filter.Standard {
			continue
		}
		if filter.VerifiedOnly && !item.Verified {
			continue
		}
		copied := *item
		copied.Quizzes = append([]string{}, item.Quizzes...)
		items = append(items, copied)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *MemoryStore) Stats(_ context.Context, createdBy string) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats
	for _, item := range s.items {
		if item.CreatedBy != createdBy {
			continue
		}
		if item.Verified {
			stats.Verified++
		} else {
			stats.Unverified++
		}
	}
	return stats, nil
}

func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
