package interactions

import (
	"context"

	"identity-service/internal/db"
)

type Store interface {
	// Upsert creates the (userID, contactID) row if absent. An existing row
	// is left untouched. created reports whether a row was inserted.
	Upsert(ctx context.Context, userID, contactID string) (created bool, err error)
	Viewed(ctx context.Context, userID string) ([]Interaction, error)
}

type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, userID, contactID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_interactions (user_id, contact_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, contact_id) DO NOTHING
	`, userID, contactID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *PostgresStore) Viewed(ctx context.Context, userID string) ([]Interaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, contact_id, viewed_at
		FROM contact_interactions
		WHERE user_id = $1
		ORDER BY viewed_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var it Interaction
		if err := rows.Scan(&it.UserID, &it.ContactID, &it.ViewedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
