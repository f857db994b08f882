package resolver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"identity-service/internal/auth"
	"identity-service/internal/db"
	"identity-service/internal/logger"
)

var ErrInvalidIdentity = errors.New("identity is missing provider or id")

// errRaced reports that a concurrent callback linked the identity first.
var errRaced = errors.New("identity linked concurrently")

// DBResolver resolves identities using the database.
type DBResolver struct {
	db *db.DB
}

func NewDBResolver(db *db.DB) *DBResolver {
	return &DBResolver{db: db}
}

// Resolve finds the user linked to (provider, id), links the identity to an
// existing user with the same verified email, or creates a new user. An
// unverified email matching an existing account fails with
// auth.ErrAccountNotLinked.
func (r *DBResolver) Resolve(ctx context.Context, identity *auth.Identity) (User, error) {
	if identity == nil || identity.Provider == "" || identity.ID == "" {
		return User{}, ErrInvalidIdentity
	}

	// 1. Known identity
	user, err := r.byIdentity(ctx, identity)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("resolver: lookup identity: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(identity.Email))

	// 2. Existing user, new provider
	user, err = r.byEmail(ctx, email)
	if err == nil {
		if !identity.EmailVerified {
			logger.Warn("unverified email matches existing user", map[string]any{
				"provider": identity.Provider,
				"user_id":  user.ID,
			})
			return User{}, fmt.Errorf("resolver: %w", auth.ErrAccountNotLinked)
		}
		linked, err := r.link(ctx, r.db, user.ID, identity)
		if err != nil {
			return User{}, fmt.Errorf("resolver: link identity: %w", err)
		}
		if !linked {
			return r.relookup(ctx, identity)
		}
		logger.Info("identity linked to existing user", map[string]any{
			"provider": identity.Provider,
			"user_id":  user.ID,
		})
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("resolver: lookup email: %w", err)
	}

	// 3. New user
	user, err = r.create(ctx, email, identity)
	if errors.Is(err, errRaced) {
		return r.relookup(ctx, identity)
	}
	if err != nil {
		return User{}, fmt.Errorf("resolver: create user: %w", err)
	}
	logger.Info("user created from provider identity", map[string]any{
		"provider": identity.Provider,
		"user_id":  user.ID,
	})
	return user, nil
}

// relookup returns the user a concurrent callback linked the identity to.
func (r *DBResolver) relookup(ctx context.Context, identity *auth.Identity) (User, error) {
	user, err := r.byIdentity(ctx, identity)
	if err != nil {
		return User{}, fmt.Errorf("resolver: lookup identity after race: %w", err)
	}
	logger.Info("identity resolved after concurrent link", map[string]any{
		"provider": identity.Provider,
		"user_id":  user.ID,
	})
	return user, nil
}

func (r *DBResolver) byIdentity(ctx context.Context, identity *auth.Identity) (User, error) {
	var (
		userID uuid.UUID
		role   string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.role
		FROM identities i
		JOIN users u ON u.id = i.user_id
		WHERE i.provider = $1
		  AND i.provider_user_id = $2
	`, identity.Provider, identity.ID).Scan(&userID, &role)
	if err != nil {
		return User{}, err
	}
	return User{ID: userID.String(), Role: auth.ParseRole(role)}, nil
}

func (r *DBResolver) byEmail(ctx context.Context, email string) (User, error) {
	if email == "" {
		return User{}, sql.ErrNoRows
	}

	var (
		userID uuid.UUID
		role   string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, role
		FROM users
		WHERE LOWER(email) = $1
	`, email).Scan(&userID, &role)
	if err != nil {
		return User{}, err
	}
	return User{ID: userID.String(), Role: auth.ParseRole(role)}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// link maps the identity to userID. It reports false when the identity was
// already mapped.
func (r *DBResolver) link(ctx context.Context, ex execer, userID string, identity *auth.Identity) (bool, error) {
	res, err := ex.ExecContext(ctx, `
		INSERT INTO identities (user_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, provider_user_id) DO NOTHING
	`, userID, identity.Provider, identity.ID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// create inserts the user and its identity mapping in one transaction. It
// rolls back with errRaced when another callback got there first.
func (r *DBResolver) create(ctx context.Context, email string, identity *auth.Identity) (User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, err
	}
	defer func() { _ = tx.Rollback() }()

	role := identity.Role
	if role == "" {
		role = auth.RoleUser
	}

	// Providers may withhold the email; NULL keeps the unique index satisfied.
	var address, image sql.NullString
	if email != "" {
		address = sql.NullString{String: email, Valid: true}
	}
	if identity.Image != nil {
		image = sql.NullString{String: *identity.Image, Valid: true}
	}
	verified := address.Valid && identity.EmailVerified

	var userID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (email, name, image, role, email_verified)
		VALUES ($1, $2, $3, $4, CASE WHEN $5::boolean THEN NOW() END)
		RETURNING id
	`, address, identity.Name, image, string(role), verified).Scan(&userID)
	if isUniqueViolation(err) {
		return User{}, errRaced
	}
	if err != nil {
		return User{}, err
	}

	linked, err := r.link(ctx, tx, userID.String(), identity)
	if err != nil {
		return User{}, err
	}
	if !linked {
		return User{}, errRaced
	}

	if err := tx.Commit(); err != nil {
		return User{}, err
	}
	return User{ID: userID.String(), Role: role, Created: true}, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
