package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/fixhost/fixhost/internal/common"
	"github.com/fixhost/fixhost/internal/server/auth"
	"github.com/fixhost/fixhost/internal/server/models"
)

type contextKey string

const (
	ctxKeyUserID contextKey = "user_id"
	ctxKeyRole   contextKey = "role"
)

// authMiddleware validates the bearer token and stashes the caller's
// identity in the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, r, common.ErrorUnauthorized)
			return
		}

		claims, err := auth.ParseToken(token, []byte(s.cfg.SecretKey))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxKeyRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin gates a handler to admin callers. Must run inside
// authMiddleware.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if roleFromContext(r.Context()) != models.RoleAdmin {
			s.writeError(w, r, common.ErrorForbidden)
			return
		}
		next(w, r)
	}
}

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id
}

func roleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(ctxKeyRole).(string)
	return role
}
