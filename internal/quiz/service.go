package quiz

import (
	"context"
	"errors"
	"fmt"

	"github.com/edumint/edumint/internal/principal"
)

// ErrForbidden is returned when the caller's role does not allow an operation.
var ErrForbidden = errors.New("operation not allowed for role")

// Reader serves quiz read paths: the learner-facing fetch with answers
// stripped, and the reviewer fetch including answers.
type Reader struct {
	quizzes Store
	cache   *Cache // optional
}

// NewReader creates a quiz reader.
func NewReader(quizzes Store, cache *Cache) *Reader {
	return &Reader{quizzes: quizzes, cache: cache}
}

// ForContent returns the quizzes generated for a content item, answers
// stripped, served from cache when possible.
func (r *Reader) ForContent(ctx context.Context, contentID string) ([]PublicQuiz, error) {
	if r.cache != nil {
		if cached, ok := r.cache.GetPublic(ctx, contentID); ok {
			return cached, nil
		}
	}

	quizzes, err := r.quizzes.ListByContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return nil, fmt.Errorf("%w: no quizzes for content %s", ErrNotFound, contentID)
	}

	public := make([]PublicQuiz, len(quizzes))
	for i := range quizzes {
		public[i] = quizzes[i].Public()
	}

	if r.cache != nil {
		r.cache.SetPublic(ctx, contentID, public)
	}
	return public, nil
}

// Review returns a quiz including its answers. Reviewer only.
func (r *Reader) Review(ctx context.Context, caller principal.Principal, quizID string) (*Quiz, error) {
	if !caller.IsReviewer() {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, caller.Role)
	}
	return r.quizzes.Get(ctx, quizID)
}
