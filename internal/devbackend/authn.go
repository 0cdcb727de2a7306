package devbackend

import (
	"context"
	"net/http"

	"clubhire.org/internal/audit"
	"clubhire.org/internal/auth"
	"clubhire.org/internal/roles"
)

type userIDKey struct{}

func userID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey{}).(int64)
	return id
}

// authenticated rejects requests without a valid bearer token.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			detail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		claims, err := s.tokens.Parse(token)
		if err != nil {
			detail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		id, err := claims.UserID()
		if err != nil {
			detail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		if _, _, err := s.store.account(id); err != nil {
			detail(w, http.StatusUnauthorized, "User not found")
			return
		}
		ctx := auth.ContextWithClaims(r.Context(), claims)
		ctx = context.WithValue(ctx, userIDKey{}, id)
		ctx = audit.WithActor(ctx, claims.Subject)
		next(w, r.WithContext(ctx))
	}
}

// requireRole admits users holding any of allowed. Roles are read from the
// account rather than the token so role changes apply immediately.
func (s *Server) requireRole(next http.HandlerFunc, allowed ...roles.Role) http.HandlerFunc {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request) {
		_, codes, err := s.store.account(userID(r.Context()))
		if err != nil || !roles.FromCodes(codes...).HasAny(allowed...) {
			detail(w, http.StatusForbidden, "Not enough permissions")
			return
		}
		next(w, r)
	})
}
