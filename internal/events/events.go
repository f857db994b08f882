package events

import (
	"context"
	"time"
)

const (
	RoutingRegistered    = "identity.user.registered"
	RoutingSignedIn      = "identity.user.signed_in"
	RoutingContactViewed = "identity.contact.viewed"
)

// Registered asks downstream mailers to send a verification email.
type Registered struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

type SignedIn struct {
	UserID     string    `json:"user_id"`
	Provider   string    `json:"provider"`
	NewUser    bool      `json:"new_user"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ContactViewed struct {
	UserID     string    `json:"user_id"`
	ContactID  string    `json:"contact_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits domain events. Callers treat publish failures as
// non-fatal.
type Publisher interface {
	PublishRegistered(ctx context.Context, evt Registered) error
	PublishSignedIn(ctx context.Context, evt SignedIn) error
	PublishContactViewed(ctx context.Context, evt ContactViewed) error
	Close() error
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) PublishRegistered(context.Context, Registered) error       { return nil }
func (Noop) PublishSignedIn(context.Context, SignedIn) error           { return nil }
func (Noop) PublishContactViewed(context.Context, ContactViewed) error { return nil }
func (Noop) Close() error                                              { return nil }
