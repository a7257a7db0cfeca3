// Package httpctx carries verified token claims through request contexts.
package httpctx

import (
	"context"

	"github.com/velora-beauty/velora-server/internal/model"
)

type contextKey struct{}

var claimsKey contextKey

// WithClaims returns a context carrying the verified token claims.
func WithClaims(ctx context.Context, claims model.TokenClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFrom retrieves verified token claims from the context.
func ClaimsFrom(ctx context.Context) (model.TokenClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(model.TokenClaims)
	return claims, ok
}
