package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/velora-beauty/velora-server/internal/api/http/httpctx"
	"github.com/velora-beauty/velora-server/internal/logger"
	"github.com/velora-beauty/velora-server/internal/model"
)

// TokenVerifier validates access tokens for an audience.
type TokenVerifier interface {
	VerifyAccess(ctx context.Context, token string, audience model.Audience) (model.TokenClaims, error)
}

// Authenticate validates bearer access tokens and injects the verified
// claims into the request context. The cookie is consulted first, then the
// Authorization header.
type Authenticate struct {
	verifier   TokenVerifier
	audience   model.Audience
	cookieName string
	logger     *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(verifier TokenVerifier, audience model.Audience, cookieName string, logger *logger.Logger) *Authenticate {
	return &Authenticate{
		verifier:   verifier,
		audience:   audience,
		cookieName: cookieName,
		logger:     logger,
	}
}

// Handle wraps next so it only runs with verified claims in context.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := m.readToken(r)
		if tokenString == "" {
			unauthorized(w)
			return
		}

		claims, err := m.verifier.VerifyAccess(r.Context(), tokenString, m.audience)
		if err != nil {
			unauthorized(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(httpctx.WithClaims(r.Context(), claims)))
	})
}

func (m *Authenticate) readToken(r *http.Request) string {
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Authentication required"}`))
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"Insufficient permissions"}`))
}

// RequirePermission gates a route on the role→permission table. It assumes
// Authenticate already ran.
func RequirePermission(permissions map[model.Role][]string, required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := httpctx.ClaimsFrom(r.Context())
			if !ok {
				unauthorized(w)
				return
			}
			for _, p := range permissions[claims.Role] {
				if p == required {
					next.ServeHTTP(w, r)
					return
				}
			}
			forbidden(w)
		})
	}
}
