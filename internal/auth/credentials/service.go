package credentials

import (
	"context"
	"fmt"
	"strings"

	"identity-service/internal/auth"
	"identity-service/internal/logger"
)

// Verifier implements the credentials sign-in flow.
type Verifier struct {
	repo   Repository
	hasher *Hasher
}

func NewVerifier(repo Repository, hasher *Hasher) *Verifier {
	return &Verifier{repo: repo, hasher: hasher}
}

// Authorize checks email and password and returns the account's identity.
//
// The order is fixed: presence, lookup, password, then verification status.
// Verification status is only revealed to a caller that knows the password.
func (v *Verifier) Authorize(ctx context.Context, email, password string) (*auth.Identity, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, auth.ErrMissingFields
	}

	email = normalizeEmail(email)

	rec, err := v.repo.FindByEmail(ctx, email)
	if err != nil {
		logger.Error("credentials lookup failed", map[string]any{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", auth.ErrInternal, err)
	}

	if rec == nil || rec.PasswordHash == nil {
		reason := "not_found"
		if rec != nil {
			reason = "no_password"
		}
		v.hasher.CompareDummy(password)
		logger.Warn("credentials sign-in rejected", map[string]any{
			"email":  email,
			"reason": reason,
		})
		return nil, auth.ErrUserNotFound
	}

	if err := v.hasher.Compare(*rec.PasswordHash, password); err != nil {
		logger.Warn("credentials sign-in rejected", map[string]any{
			"email":  email,
			"reason": "incorrect_password",
		})
		return nil, auth.ErrIncorrectPassword
	}

	if rec.EmailVerified == nil {
		logger.Info("credentials sign-in blocked", map[string]any{
			"email":  email,
			"reason": "email_not_verified",
		})
		return nil, auth.ErrEmailNotVerified
	}

	return rec.identity(), nil
}

// Register creates an unverified credentials account and returns its user id.
func (v *Verifier) Register(ctx context.Context, email, name, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", auth.ErrMissingFields
	}

	hash, err := v.hasher.Hash(password)
	if err != nil {
		return "", err
	}

	return v.repo.Create(ctx, normalizeEmail(email), strings.TrimSpace(name), hash)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
