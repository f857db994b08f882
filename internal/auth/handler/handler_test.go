package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"identity-service/internal/auth"
	"identity-service/internal/auth/credentials"
	"identity-service/internal/auth/provider"
	"identity-service/internal/auth/resolver"
	"identity-service/internal/events"
	"identity-service/internal/interactions"
	"identity-service/internal/middleware"
	"identity-service/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---- fakes ----

type fakeOAuth struct {
	name string
}

func (f fakeOAuth) Name() string        { return f.name }
func (f fakeOAuth) DisplayName() string { return strings.ToUpper(f.name[:1]) + f.name[1:] }
func (f fakeOAuth) AuthCodeURL(state, challenge string) string {
	return "https://idp.example/authorize?" + url.Values{
		"state":          {state},
		"code_challenge": {challenge},
	}.Encode()
}

func (f fakeOAuth) ExchangeCode(_ context.Context, code, verifier string) (*auth.Identity, error) {
	if code != "good-code" || verifier == "" {
		return nil, fmt.Errorf("%w: token exchange rejected", auth.ErrProviderSignInFailed)
	}
	return &auth.Identity{Provider: f.name, ID: "42", Name: "Octo", Email: "octo@example.com", Role: auth.RoleUser}, nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]session.Session
}

func (m *memSessions) Create(_ context.Context, s session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.SessionID] = s
	return nil
}

func (m *memSessions) Get(_ context.Context, id string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memSessions) Update(ctx context.Context, s session.Session) error { return m.Create(ctx, s) }

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

type fakeResolver struct {
	resolved []*auth.Identity
	created  bool
	err      error
}

func (f *fakeResolver) Resolve(_ context.Context, identity *auth.Identity) (resolver.User, error) {
	f.resolved = append(f.resolved, identity)
	if f.err != nil {
		return resolver.User{}, f.err
	}
	return resolver.User{ID: "user-" + identity.ID, Role: auth.RoleUser, Created: f.created}, nil
}

type credRepo struct {
	records map[string]credentials.Record
}

func (r *credRepo) FindByEmail(_ context.Context, email string) (*credentials.Record, error) {
	rec, ok := r.records[email]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *credRepo) Create(_ context.Context, email, name, hash string) (string, error) {
	if _, ok := r.records[email]; ok {
		return "", credentials.ErrAlreadyRegistered
	}
	r.records[email] = credentials.Record{UserID: "new", Email: email, Name: name, PasswordHash: &hash}
	return "new", nil
}

type viewStore struct {
	rows map[string]bool
}

func (v *viewStore) Upsert(_ context.Context, userID, contactID string) (bool, error) {
	key := userID + "/" + contactID
	if v.rows[key] {
		return false, nil
	}
	v.rows[key] = true
	return true, nil
}

func (v *viewStore) Viewed(_ context.Context, userID string) ([]interactions.Interaction, error) {
	var out []interactions.Interaction
	for key := range v.rows {
		parts := strings.SplitN(key, "/", 2)
		if parts[0] == userID {
			out = append(out, interactions.Interaction{UserID: parts[0], ContactID: parts[1]})
		}
	}
	return out, nil
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context, ...string) error { return nil }

type recordingPublisher struct {
	events.Noop
	signedIn   []events.SignedIn
	registered []events.Registered
}

func (p *recordingPublisher) PublishSignedIn(_ context.Context, evt events.SignedIn) error {
	p.signedIn = append(p.signedIn, evt)
	return nil
}

func (p *recordingPublisher) PublishRegistered(_ context.Context, evt events.Registered) error {
	p.registered = append(p.registered, evt)
	return nil
}

// ---- harness ----

type harness struct {
	router    *gin.Engine
	sessions  *memSessions
	resolver  *fakeResolver
	creds     *credRepo
	views     *viewStore
	publisher *recordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		sessions:  &memSessions{sessions: map[string]session.Session{}},
		resolver:  &fakeResolver{},
		creds:     &credRepo{records: map[string]credentials.Record{}},
		views:     &viewStore{rows: map[string]bool{}},
		publisher: &recordingPublisher{},
	}

	hasher := credentials.NewHasher(bcrypt.MinCost)
	verifier := credentials.NewVerifier(h.creds, hasher)
	registry := provider.NewRegistry(verifier, fakeOAuth{name: "google"}, fakeOAuth{name: "github"})

	hd := NewHandler(Deps{
		Providers:  registry,
		Sessions:   h.sessions,
		Resolver:   h.resolver,
		Verifier:   verifier,
		Recorder:   interactions.NewRecorder(h.views, nopInvalidator{}, nil),
		Publisher:  h.publisher,
		SessionTTL: time.Hour,
		Cookie:     session.DefaultCookieOptions,
	})

	h.router = gin.New()
	hd.RegisterRoutes(h.router, middleware.NewAuthMiddleware(h.sessions))
	return h
}

func (h *harness) seedCredentials(t *testing.T, email, password string, verified bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	s := string(hash)
	rec := credentials.Record{UserID: "cred-user", Email: email, Role: auth.RoleUser, PasswordHash: &s}
	if verified {
		now := time.Now()
		rec.EmailVerified = &now
	}
	h.creds.records[email] = rec
}

func (h *harness) signIn(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	s, err := session.New(userID, auth.RoleUser, "github", time.Hour)
	require.NoError(t, err)
	require.NoError(t, h.sessions.Create(context.Background(), s))
	return &http.Cookie{Name: session.CookieName, Value: s.SessionID}
}

func (h *harness) do(method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	msg, _ := body["error"].(string)
	return msg
}

// ---- tests ----

func TestProviders_OrderedWithLabels(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/auth/providers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Providers []struct {
			ID    string `json:"id"`
			Kind  string `json:"kind"`
			Label string `json:"label"`
		} `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Providers, 3)
	assert.Equal(t, "google", body.Providers[0].ID)
	assert.Equal(t, "Google", body.Providers[0].Label)
	assert.Equal(t, "github", body.Providers[1].ID)
	assert.Equal(t, "credentials", body.Providers[2].ID)
	assert.Equal(t, "credentials", body.Providers[2].Kind)
}

func TestOAuthLogin_RedirectsWithStateAndPKCE(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/oauth/login/github", "")
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)

	state := cookieNamed(rec, stateCookieName)
	verifier := cookieNamed(rec, pkceCookieName)
	require.NotNil(t, state)
	require.NotNil(t, verifier)

	assert.Equal(t, state.Value, loc.Query().Get("state"))
	assert.Equal(t, pkceChallenge(verifier.Value), loc.Query().Get("code_challenge"))
	assert.True(t, state.HttpOnly)
}

func TestOAuthLogin_UnknownProvider(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/oauth/login/myspace", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func flowCookies(state string) []*http.Cookie {
	return []*http.Cookie{
		{Name: stateCookieName, Value: state},
		{Name: pkceCookieName, Value: "verifier-123"},
	}
}

func TestCallback_Success(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/oauth/callback/github?state=s1&code=good-code", "", flowCookies("s1")...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sc := cookieNamed(rec, session.CookieName)
	require.NotNil(t, sc)

	stored, err := h.sessions.Get(context.Background(), sc.Value)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "user-42", stored.UserID)
	assert.Equal(t, "github", stored.Provider)

	require.Len(t, h.resolver.resolved, 1)
	assert.Equal(t, "github", h.resolver.resolved[0].Provider)
	require.Len(t, h.publisher.signedIn, 1)
	assert.Equal(t, "user-42", h.publisher.signedIn[0].UserID)
	assert.False(t, h.publisher.signedIn[0].NewUser)

	cleared := cookieNamed(rec, stateCookieName)
	require.NotNil(t, cleared)
	assert.True(t, cleared.MaxAge < 0)
}

func TestCallback_FirstSignInReportsNewUser(t *testing.T) {
	h := newHarness(t)
	h.resolver.created = true

	rec := h.do(http.MethodGet, "/oauth/callback/github?state=s1&code=good-code", "", flowCookies("s1")...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, h.publisher.signedIn, 1)
	assert.True(t, h.publisher.signedIn[0].NewUser)
}

func TestCallback_AccountNotLinked(t *testing.T) {
	h := newHarness(t)
	h.resolver.err = fmt.Errorf("resolver: %w", auth.ErrAccountNotLinked)

	rec := h.do(http.MethodGet, "/oauth/callback/github?state=s1&code=good-code", "", flowCookies("s1")...)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, auth.MsgAccountNotLinked, errorMessage(t, rec))
	assert.Nil(t, cookieNamed(rec, session.CookieName))
	assert.Empty(t, h.publisher.signedIn)
}

func TestCallback_StateMismatch(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/oauth/callback/github?state=forged&code=good-code", "", flowCookies("s1")...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, h.resolver.resolved)
}

func TestCallback_ExchangeFailureIsGeneric(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/oauth/callback/github?state=s1&code=bad-code", "", flowCookies("s1")...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.MsgDefault, errorMessage(t, rec))
	assert.Nil(t, cookieNamed(rec, session.CookieName))
}

func TestCallback_ProviderErrorRedirectsToLogin(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/oauth/callback/github?state=s1&error=access_denied", "", flowCookies("s1")...)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestCallback_MissingVerifier(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/oauth/callback/github?state=s1&code=good-code", "",
		&http.Cookie{Name: stateCookieName, Value: "s1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_Success(t *testing.T) {
	h := newHarness(t)
	h.seedCredentials(t, "foo@x.com", "correct-horse", true)

	rec := h.do(http.MethodPost, "/auth/login", `{"email":"Foo@X.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sc := cookieNamed(rec, session.CookieName)
	require.NotNil(t, sc)
	stored, _ := h.sessions.Get(context.Background(), sc.Value)
	require.NotNil(t, stored)
	assert.Equal(t, "cred-user", stored.UserID)
	assert.Equal(t, auth.ProviderCredentials, stored.Provider)
}

func TestLogin_UnknownUserAndWrongPasswordLookAlike(t *testing.T) {
	h := newHarness(t)
	h.seedCredentials(t, "foo@x.com", "correct-horse", true)

	unknown := h.do(http.MethodPost, "/auth/login", `{"email":"nobody@x.com","password":"whatever1"}`)
	wrong := h.do(http.MethodPost, "/auth/login", `{"email":"foo@x.com","password":"wrong-horse"}`)

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, unknown.Code, wrong.Code)
	assert.Equal(t, auth.MsgInvalidCredentials, errorMessage(t, unknown))
	assert.Equal(t, errorMessage(t, unknown), errorMessage(t, wrong))
}

func TestLogin_Unverified(t *testing.T) {
	h := newHarness(t)
	h.seedCredentials(t, "foo@x.com", "correct-horse", false)

	rec := h.do(http.MethodPost, "/auth/login", `{"email":"foo@x.com","password":"correct-horse"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.MsgEmailNotVerified, errorMessage(t, rec))
	assert.Nil(t, cookieNamed(rec, session.CookieName))
}

func TestLogin_MissingFields(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/auth/login", `{"email":"","password":""}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.MsgMissingFields, errorMessage(t, rec))
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/auth/register", `{"email":"New@X.com","name":"New","password":"long-enough"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Nil(t, cookieNamed(rec, session.CookieName), "unverified accounts get no session")
	require.Len(t, h.publisher.registered, 1)
	assert.Equal(t, "new@x.com", h.publisher.registered[0].Email)

	rec = h.do(http.MethodPost, "/auth/register", `{"email":"new@x.com","password":"long-enough"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodPost, "/auth/register", `{"email":"not-an-email","password":"long-enough"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/auth/register", `{"email":"short@x.com","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 40 runes pass the binding but exceed bcrypt's 72 bytes.
	long := strings.Repeat("é", 40)
	rec = h.do(http.MethodPost, "/auth/register", `{"email":"long@x.com","password":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.NotContains(t, h.creds.records, "long@x.com")
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, "u1")

	rec := h.do(http.MethodPost, "/auth/logout", "", cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	stored, _ := h.sessions.Get(context.Background(), cookie.Value)
	assert.Nil(t, stored)

	cleared := cookieNamed(rec, session.CookieName)
	require.NotNil(t, cleared)
	assert.True(t, cleared.MaxAge < 0)

	// Idempotent without a session
	rec = h.do(http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMe(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/api/me", "", h.signIn(t, "u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"u1"`)
}

func TestViewContact(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/contacts/c1/view", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"User not authenticated."}`, rec.Body.String())
	assert.Empty(t, h.views.rows)

	cookie := h.signIn(t, "u1")
	rec = h.do(http.MethodPost, "/api/contacts/c1/view", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/contacts/c1/view", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, h.views.rows, 1)

	rec = h.do(http.MethodGet, "/api/me/viewed-contacts", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"contact_id":"c1"`)
}

func TestIntegrations(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/integrations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Reliable Integrations")
}
