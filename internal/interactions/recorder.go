package interactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"identity-service/internal/events"
	"identity-service/internal/logger"
	"identity-service/internal/metrics"
	"identity-service/internal/session"
)

var invalidatedPaths = []string{PathDashboard, PathDocumentation, PathSettings}

// Recorder marks contacts as viewed for the signed-in user.
type Recorder struct {
	store       Store
	invalidator Invalidator
	publisher   events.Publisher
}

func NewRecorder(store Store, invalidator Invalidator, publisher events.Publisher) *Recorder {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Recorder{store: store, invalidator: invalidator, publisher: publisher}
}

// RecordView records that the user in ctx viewed contactID. It never returns
// an error; every failure is folded into Result.
func (r *Recorder) RecordView(ctx context.Context, contactID string) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("contact view panicked", map[string]any{
				"contact_id": contactID,
				"panic":      fmt.Sprint(p),
			})
			metrics.RecordContactView("failed")
			res = Result{Success: false, Message: MsgRecordFailed}
		}
	}()

	userID, err := r.record(ctx, contactID)
	switch {
	case errors.Is(err, ErrUnauthenticated):
		logger.Error("contact view rejected", map[string]any{
			"reason": "unauthenticated",
		})
		metrics.RecordContactView("rejected")
		return Result{Success: false, Message: MsgUnauthenticated}
	case errors.Is(err, ErrMissingContactID):
		logger.Warn("contact view rejected", map[string]any{
			"user_id": userID,
			"reason":  "missing_contact_id",
		})
		metrics.RecordContactView("rejected")
		return Result{Success: false, Message: MsgMissingContactID}
	case err != nil:
		logger.Error("contact view failed", map[string]any{
			"user_id":    userID,
			"contact_id": contactID,
			"error":      err.Error(),
		})
		metrics.RecordContactView("failed")
		return Result{Success: false, Message: MsgRecordFailed}
	}

	metrics.RecordContactView("recorded")
	return Result{Success: true}
}

func (r *Recorder) record(ctx context.Context, contactID string) (string, error) {
	userID, ok := session.UserIDFromContext(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}

	contactID = strings.TrimSpace(contactID)
	if contactID == "" {
		return userID, ErrMissingContactID
	}

	created, err := r.store.Upsert(ctx, userID, contactID)
	if err != nil {
		return userID, fmt.Errorf("upsert: %w", err)
	}

	if err := r.invalidator.Invalidate(ctx, invalidatedPaths...); err != nil {
		return userID, err
	}

	if created {
		evt := events.ContactViewed{UserID: userID, ContactID: contactID, OccurredAt: time.Now().UTC()}
		if err := r.publisher.PublishContactViewed(ctx, evt); err != nil {
			logger.Warn("contact viewed event not published", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}
	return userID, nil
}

// Viewed lists the contacts the user in ctx has viewed, newest first.
func (r *Recorder) Viewed(ctx context.Context) ([]Interaction, error) {
	userID, ok := session.UserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return r.store.Viewed(ctx, userID)
}
