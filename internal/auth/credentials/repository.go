package credentials

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"identity-service/internal/auth"
	"identity-service/internal/db"
)

var ErrAlreadyRegistered = errors.New("credentials already exist")

// Repository is the persistence the verifier reads from.
type Repository interface {
	// FindByEmail expects a lowercased email and returns (nil, nil) when
	// no account exists.
	FindByEmail(ctx context.Context, email string) (*Record, error)
	Create(ctx context.Context, email, name, passwordHash string) (string, error)
}

type PostgresRepository struct {
	db *db.DB
}

func NewPostgresRepository(db *db.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*Record, error) {
	var (
		rec      Record
		userID   uuid.UUID
		image    sql.NullString
		hash     sql.NullString
		verified sql.NullTime
		role     string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, image, role, password_hash, email_verified
		FROM users
		WHERE LOWER(email) = $1
	`, email).Scan(&userID, &rec.Email, &rec.Name, &image, &role, &hash, &verified)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.UserID = userID.String()
	rec.Role = auth.ParseRole(role)
	if image.Valid {
		rec.Image = &image.String
	}
	if hash.Valid {
		rec.PasswordHash = &hash.String
	}
	if verified.Valid {
		rec.EmailVerified = &verified.Time
	}
	return &rec, nil
}

func (r *PostgresRepository) Create(ctx context.Context, email, name, passwordHash string) (string, error) {
	var userID uuid.UUID

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, name, password_hash, email_verified)
		VALUES ($1, $2, $3, NULL)
		RETURNING id
	`, email, name, passwordHash).Scan(&userID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return "", ErrAlreadyRegistered
	}
	if err != nil {
		return "", err
	}

	return userID.String(), nil
}
