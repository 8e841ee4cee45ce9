// Package principal models the already-authenticated caller identity.
//
// Verification happens upstream; core operations trust the principal they are
// handed and never re-derive identity or role from request fields.
package principal

// Roles known to the platform.
const (
	RoleLearner  = "learner"
	RoleCreator  = "creator"
	RoleReviewer = "reviewer"
)

// Principal is an opaque, pre-verified caller identity.
type Principal struct {
	UserID   string
	Role     string
	Standard int // grade the learner belongs to; 0 for non-learners
}

// IsReviewer reports whether the principal may see and verify all content.
func (p Principal) IsReviewer() bool {
	return p.Role == RoleReviewer
}

// IsCreator reports whether the principal may upload content.
func (p Principal) IsCreator() bool {
	return p.Role == RoleCreator || p.Role == RoleReviewer
}
