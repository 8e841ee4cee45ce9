// Package learner persists quiz attempt history and coin wallets.
//
// RecordAttempt is the single transactional boundary around the attempt list
// and wallet: the already-solved check, the attempt append and the coin credit
// happen under one lock (or one database transaction), so two concurrent
// perfect-score submissions cannot both be rewarded.
package learner

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrAlreadySolved is returned when the learner already has a perfect-score
// attempt for the content. No new attempt is recorded.
var ErrAlreadySolved = errors.New("quiz already solved")

// PerfectScore is the score that marks a content item solved.
const PerfectScore = 5

// Attempt is one scored attempt at one content item's quiz.
type Attempt struct {
	ContentID  string `json:"contentId"`
	Attempts   int    `json:"attempts"` // 1-based ordinal for this content
	Score      int    `json:"score"`
	CoinsGiven bool   `json:"coinsGiven"`
}

// Profile is a learner's attempt history and wallet balance.
type Profile struct {
	LearnerID string    `json:"learnerId"`
	Solved    []Attempt `json:"solved"`
	Wallet    int       `json:"wallet"`
}

// Outcome reports what RecordAttempt persisted.
type Outcome struct {
	Attempt Attempt
	Coins   int // coins credited, zero unless the score was perfect
}

// Store persists learner profiles.
type Store interface {
	// Profile returns the learner's profile, empty if never seen.
	Profile(ctx context.Context, learnerID string) (*Profile, error)

	// HasPerfectScore reports whether the learner already solved the content.
	HasPerfectScore(ctx context.Context, learnerID, contentID string) (bool, error)

	// RecordAttempt atomically checks for a prior perfect score, computes the
	// attempt ordinal, appends the attempt and credits coinsFor(ordinal) to
	// the wallet when the score is perfect. coinsFor is only called for a
	// perfect score.
	RecordAttempt(ctx context.Context, learnerID, contentID string, score int, coinsFor func(attemptNumber int) (int, error)) (Outcome, error)
}

// MemoryStore is an in-memory Store implementation. A per-learner mutex makes
// RecordAttempt atomic across concurrent submissions.
type MemoryStore struct {
	profiles map[string]*Profile
	locks    map[string]*sync.Mutex
	mu       sync.Mutex
}

// NewMemoryStore creates a new in-memory learner store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*Profile),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) lockFor(learnerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[learnerID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[learnerID] = lock
	}
	return lock
}

func (s *MemoryStore) profileFor(learnerID string) *Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[learnerID]
	if !ok {
		p = &Profile{LearnerID: learnerID, Solved: []Attempt{}}
		s.profiles[learnerID] = p
	}
	return p
}

func (s *MemoryStore) Profile(_ context.Context, learnerID string) (*Profile, error) {
	lock := s.lockFor(learnerID)
	lock.Lock()
	defer lock.Unlock()

	p := s.profileFor(learnerID)
	copied := *p
	copied.Solved = append([]Attempt{}, p.Solved...)
	return &copied, nil
}

func (s *MemoryStore) HasPerfectScore(_ context.Context, learnerID, contentID string) (bool, error) {
	lock := s.lockFor(learnerID)
	lock.Lock()
	defer lock.Unlock()

	return hasPerfectScore(s.profileFor(learnerID), contentID), nil
}

func (s *MemoryStore) RecordAttempt(_ context.Context, learnerID, contentID string, score int, coinsFor func(int) (int, error)) (Outcome, error) {
	lock := s.lockFor(learnerID)
	lock.Lock()
	defer lock.Unlock()

	p := s.profileFor(learnerID)
	if hasPerfectScore(p, contentID) {
		return Outcome{}, fmt.Errorf("%w: content %s", ErrAlreadySolved, contentID)
	}

	ordinal := 1
	for _, a := range p.Solved {
		if a.ContentID == contentID {
			ordinal++
		}
	}

	attempt := Attempt{
		ContentID: contentID,
		Attempts:  ordinal,
		Score:     score,
	}

	var coins int
	if score == PerfectScore {
		var err error
		coins, err = coinsFor(ordinal)
		if err != nil {
			return Outcome{}, fmt.Errorf("compute reward: %w", err)
		}
		attempt.CoinsGiven = coins > 0
		p.Wallet += coins
	}

	p.Solved = append(p.Solved, attempt)
	return Outcome{Attempt: attempt, Coins: coins}, nil
}

func hasPerfectScore(p *Profile, contentID string) bool {
	for _, a := range p.Solved {
		if a.ContentID == contentID && a.Score == PerfectScore {
			return true
		}
	}
	return false
}
