package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/edumint/edumint/internal/principal"
)

// ErrForbidden is returned when the caller's role does not allow an operation.
var ErrForbidden = errors.New("operation not allowed for role")

// Taxonomy validates upload metadata against the subject catalogue.
type Taxonomy interface {
	Validate(subject string, standard int) error
}

// Service exposes the content operations around the pipeline: creation,
// role-aware listing, reviewer verification and deletion.
type Service struct {
	store    Store
	taxonomy Taxonomy
}

// NewService creates a content service. taxonomy may be nil to skip
// metadata validation.
func NewService(store Store, taxonomy Taxonomy) *Service {
	return &Service{store: store, taxonomy: taxonomy}
}

// Create records a new, unpublished content item for a creator.
func (s *Service) Create(ctx context.Context, caller principal.Principal, item Item) (string, error) {
	if !caller.IsCreator() {
		return "", fmt.Errorf("%w: %s", ErrForbidden, caller.Role)
	}
	if s.taxonomy != nil {
		if err := s.taxonomy.Validate(item.SubjectName, item.Standard); err != nil {
			return "", fmt.Errorf("invalid upload metadata: %w", err)
		}
	}

	item.CreatedBy = caller.UserID
	item.Verified = false
	item.Summary = ""
	return s.store.Create(ctx, item)
}

// Get returns one content item by id.
func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	return s.store.Get(ctx, id)
}

// List returns the content visible to the caller: reviewers see everything,
// creators their own uploads, learners only verified material for their grade.
func (s *Service) List(ctx context.Context, caller principal.Principal) ([]Item, error) {
	switch caller.Role {
	case principal.RoleReviewer:
		return s.store.List(ctx, ListFilter{})
	case principal.RoleCreator:
		return s.store.List(ctx, ListFilter{CreatedBy: caller.UserID})
	default:
		return s.store.List(ctx, ListFilter{Standard: caller.Standard, VerifiedOnly: true})
	}
}

// Verify marks an item verified without re-moderation. Reviewer only.
func (s *Service) Verify(ctx context.Context, caller principal.Principal, id string) (*Item, error) {
	if !caller.IsReviewer() {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, caller.Role)
	}
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Verified = true
	if err := s.store.Update(ctx, *item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes an item. Creators may delete their own, reviewers any.
func (s *Service) Delete(ctx context.Context, caller principal.Principal, id string) error {
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !caller.IsReviewer() && item.CreatedBy != caller.UserID {
		return fmt.Errorf("%w: %s", ErrForbidden, caller.Role)
	}
	return s.store.Delete(ctx, id)
}

// CreatorStats counts the caller's items by verification state.
func (s *Service) CreatorStats(ctx context.Context, caller principal.Principal) (Stats, error) {
	return s.store.Stats(ctx, caller.UserID)
}
