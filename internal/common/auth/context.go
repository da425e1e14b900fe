package auth

import (
	"context"

	"erate-tracker/internal/common/errors"
	"erate-tracker/internal/models"
)

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated caller, or an
// authentication error when the request never went through the middleware.
func PrincipalFromContext(ctx context.Context) (*models.Principal, error) {
	p, ok := ctx.Value(principalKey{}).(*models.Principal)
	if !ok || p == nil {
		return nil, errors.NewAuthenticationError("request is not authenticated")
	}
	return p, nil
}
