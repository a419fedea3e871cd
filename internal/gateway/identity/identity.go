// Package identity verifies bearer tokens issued by the identity provider and
// proxies the provider's account operations.
package identity

import (
	"context"
)

// Identity is the verified caller behind a bearer token.
type Identity struct {
	SubjectID     string
	Email         string
	EmailVerified bool
}

// Verifier checks a bearer token. Implementations return an apperror with
// kind Unauthenticated for any token that does not verify.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
}

// Session is the result of a password sign-in.
type Session struct {
	IDToken      string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	SubjectID    string `json:"-"`
}

type subjectKey struct{}

// WithSubject returns a copy of ctx carrying the verified subject id.
func WithSubject(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subjectID)
}

// SubjectFromContext returns the subject id attached by WithSubject.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subjectID, ok := ctx.Value(subjectKey{}).(string)
	return subjectID, ok && subjectID != ""
}
