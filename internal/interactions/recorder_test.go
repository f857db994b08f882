package interactions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity-service/internal/events"
	"identity-service/internal/session"
)

type fakeStore struct {
	mu    sync.Mutex
	rows  map[[2]string]time.Time
	calls int
	err   error
	panic bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[[2]string]time.Time{}}
}

func (f *fakeStore) Upsert(_ context.Context, userID, contactID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.panic {
		panic("driver exploded")
	}
	if f.err != nil {
		return false, f.err
	}
	key := [2]string{userID, contactID}
	if _, ok := f.rows[key]; ok {
		return false, nil
	}
	f.rows[key] = time.Now()
	return true, nil
}

func (f *fakeStore) Viewed(_ context.Context, userID string) ([]Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Interaction
	for k, at := range f.rows {
		if k[0] == userID {
			out = append(out, Interaction{UserID: k[0], ContactID: k[1], ViewedAt: at})
		}
	}
	return out, nil
}

type fakeInvalidator struct {
	paths []string
	err   error
}

func (f *fakeInvalidator) Invalidate(_ context.Context, paths ...string) error {
	if f.err != nil {
		return f.err
	}
	f.paths = append(f.paths, paths...)
	return nil
}

type fakePublisher struct {
	events.Noop
	viewed []events.ContactViewed
}

func (f *fakePublisher) PublishContactViewed(_ context.Context, evt events.ContactViewed) error {
	f.viewed = append(f.viewed, evt)
	return nil
}

func signedIn(userID string) context.Context {
	return session.WithSession(context.Background(), session.Session{SessionID: "sid", UserID: userID})
}

func TestRecordView_Success(t *testing.T) {
	store := newFakeStore()
	inv := &fakeInvalidator{}
	pub := &fakePublisher{}
	r := NewRecorder(store, inv, pub)

	res := r.RecordView(signedIn("u1"), "contact-42")

	assert.Equal(t, Result{Success: true}, res)
	assert.Equal(t, []string{"/dashboard", "/documentation", "/settings"}, inv.paths)
	require.Len(t, pub.viewed, 1)
	assert.Equal(t, "contact-42", pub.viewed[0].ContactID)
}

func TestRecordView_Unauthenticated(t *testing.T) {
	store := newFakeStore()
	r := NewRecorder(store, &fakeInvalidator{}, nil)

	res := r.RecordView(context.Background(), "contact-42")

	assert.Equal(t, Result{Success: false, Message: "User not authenticated."}, res)
	assert.Zero(t, store.calls, "store must not be touched")
}

func TestRecordView_MissingContactID(t *testing.T) {
	store := newFakeStore()
	r := NewRecorder(store, &fakeInvalidator{}, nil)

	res := r.RecordView(signedIn("u1"), "")

	assert.Equal(t, Result{Success: false, Message: "Contact ID is required."}, res)
	assert.Zero(t, store.calls)
}

func TestRecordView_Idempotent(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	r := NewRecorder(store, &fakeInvalidator{}, pub)
	ctx := signedIn("u1")

	require.True(t, r.RecordView(ctx, "c1").Success)
	first := store.rows[[2]string{"u1", "c1"}]

	require.True(t, r.RecordView(ctx, "c1").Success)

	assert.Len(t, store.rows, 1)
	assert.Equal(t, first, store.rows[[2]string{"u1", "c1"}], "viewed_at preserved")
	assert.Len(t, pub.viewed, 1, "only the first view emits an event")
}

func TestRecordView_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection refused")
	inv := &fakeInvalidator{}
	r := NewRecorder(store, inv, nil)

	res := r.RecordView(signedIn("u1"), "c1")

	assert.Equal(t, Result{Success: false, Message: "Could not mark contact as viewed."}, res)
	assert.Empty(t, inv.paths)
}

func TestRecordView_InvalidationFailure(t *testing.T) {
	r := NewRecorder(newFakeStore(), &fakeInvalidator{err: errors.New("redis down")}, nil)

	res := r.RecordView(signedIn("u1"), "c1")
	assert.False(t, res.Success)
	assert.Equal(t, MsgRecordFailed, res.Message)
}

func TestRecordView_PanicIsContained(t *testing.T) {
	store := newFakeStore()
	store.panic = true
	r := NewRecorder(store, &fakeInvalidator{}, nil)

	var res Result
	assert.NotPanics(t, func() { res = r.RecordView(signedIn("u1"), "c1") })
	assert.Equal(t, Result{Success: false, Message: MsgRecordFailed}, res)
}

func TestViewed(t *testing.T) {
	store := newFakeStore()
	r := NewRecorder(store, &fakeInvalidator{}, nil)

	_, err := r.Viewed(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.True(t, r.RecordView(signedIn("u1"), "c1").Success)
	require.True(t, r.RecordView(signedIn("u2"), "c2").Success)

	list, err := r.Viewed(signedIn("u1"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0].ContactID)
}
