package server

import (
	"net/http"
	"strconv"

	"github.com/edumint/edumint/internal/principal"
)

// Identity headers set by the authenticating proxy in front of this service.
const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"
	headerStandard = "X-Standard"
)

type principalHandler func(w http.ResponseWriter, r *http.Request, caller principal.Principal)

// withPrincipal reads the pre-verified caller identity from request headers
// and rejects requests that carry none.
func (s *Server) withPrincipal(next principalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := principalFrom(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing caller identity")
			return
		}
		next(w, r, caller)
	}
}

func principalFrom(r *http.Request) (principal.Principal, bool) {
	userID := r.Header.Get(headerUserID)
	role := r.Header.Get(headerUserRole)
	if userID == "" || role == "" {
		return principal.Principal{}, false
	}

	switch role {
	case principal.RoleLearner, principal.RoleCreator, principal.RoleReviewer:
	default:
		return principal.Principal{}, false
	}

	standard := 0
	if v := r.Header.Get(headerStandard); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			standard = n
		}
	}

	return principal.Principal{UserID: userID, Role: role, Standard: standard}, true
}
