package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/notes-api/internal/apperr"
	"github.com/iliyamo/notes-api/internal/cache"
	"github.com/iliyamo/notes-api/internal/config"
	"github.com/iliyamo/notes-api/internal/model"
	"github.com/iliyamo/notes-api/internal/repository"
	"github.com/iliyamo/notes-api/internal/session"
	"github.com/iliyamo/notes-api/internal/utils"
)

// ----- in-memory fakes behind the store interfaces -----

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]model.User // keyed by username
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: map[string]model.User{}} }

func (f *fakeUsers) Create(_ context.Context, id, username, password, fullname string, cost int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[username]; ok {
		return repository.ErrUsernameExists
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	f.users[username] = model.User{ID: id, Username: username, PasswordHash: hash, Fullname: fullname}
	return nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

type fakeTokens struct {
	mu   sync.Mutex
	rows map[string]string // tokenHash -> userID
}

func newFakeTokens() *fakeTokens { return &fakeTokens{rows: map[string]string{}} }

func (f *fakeTokens) Add(_ context.Context, userID, tokenHash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[tokenHash] = userID
	return nil
}

func (f *fakeTokens) Verify(_ context.Context, tokenHash string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := f.rows[tokenHash]
	if !ok {
		return "", repository.ErrNotFound
	}
	return uid, nil
}

func (f *fakeTokens) Delete(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, tokenHash)
	return nil
}

func (f *fakeTokens) DeleteAllForUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for hash, uid := range f.rows {
		if uid == userID {
			delete(f.rows, hash)
		}
	}
	return nil
}

func (f *fakeTokens) has(tokenHash string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[tokenHash]
	return ok
}

func (f *fakeTokens) countFor(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, uid := range f.rows {
		if uid == userID {
			n++
		}
	}
	return n
}

// ----- harness -----

type authFixture struct {
	h      *AuthHandler
	users  *fakeUsers
	tokens *fakeTokens
	store  *cache.MemoryStore
	e      *echo.Echo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	cfg := config.Config{
		Env:             "test",
		AccessTokenKey:  "access-secret",
		RefreshTokenKey: "refresh-secret",
		SessionSecret:   "session-secret",
		CookieSecret:    "cookie-secret",
		AccessTTLMin:    15,
		RefreshTTLDays:  7,
		BcryptCost:      4, // minimum cost keeps the tests fast
	}
	store := cache.NewMemoryStore(0)
	t.Cleanup(store.Stop)
	mgr := session.NewManager(store, cfg.SessionSecret, cfg.CookieSecret, time.Hour, false)
	users := newFakeUsers()
	tokens := newFakeTokens()
	return &authFixture{
		h:      NewAuthHandler(cfg, users, tokens, mgr),
		users:  users,
		tokens: tokens,
		store:  store,
		e:      echo.New(),
	}
}

func (f *authFixture) jsonRequest(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return f.e.NewContext(req, rec), rec
}

type testEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func (f *authFixture) register(t *testing.T, username, password string) string {
	t.Helper()
	c, rec := f.jsonRequest(t, http.MethodPost, "/api/register",
		`{"username":"`+username+`","password":"`+password+`","fullname":"Test User"}`)
	require.NoError(t, f.h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	var data struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	return data.UserID
}

type loginResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

func (f *authFixture) login(t *testing.T, username, password string) (loginResult, *httptest.ResponseRecorder) {
	t.Helper()
	c, rec := f.jsonRequest(t, http.MethodPost, "/api/login",
		`{"username":"`+username+`","password":"`+password+`"}`)
	require.NoError(t, f.h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var out loginResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &out))
	return out, rec
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// ----- register -----

func TestRegisterNormalizesUsername(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "  Alice  ", "hunter22")

	_, err := f.users.GetByUsername(context.Background(), "alice")
	assert.NoError(t, err, "usernames are stored lowercased and trimmed")
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice", "hunter22")

	c, _ := f.jsonRequest(t, http.MethodPost, "/api/register",
		`{"username":"alice","password":"hunter22"}`)
	err := f.h.Register(c)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInvariant, e.Kind)
	assert.Equal(t, "username already taken", e.Message)
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture(t)
	cases := []struct {
		name string
		body string
	}{
		{"short username", `{"username":"ab","password":"hunter22"}`},
		{"short password", `{"username":"alice","password":"12345"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := f.jsonRequest(t, http.MethodPost, "/api/register", tc.body)
			err := f.h.Register(c)
			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindInvariant, e.Kind)
		})
	}
}

// ----- login -----

func TestLoginIssuesTokensAndSession(t *testing.T) {
	f := newAuthFixture(t)
	uid := f.register(t, "alice", "hunter22")

	out, rec := f.login(t, "alice", "hunter22")

	assert.Equal(t, uid, out.User.ID)

	claims, err := utils.VerifyToken(out.AccessToken, "access-secret")
	require.NoError(t, err)
	assert.Equal(t, uid, claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	// The refresh token is honored only because its hash is allow-listed.
	assert.True(t, f.tokens.has(utils.HashToken(out.RefreshToken)))

	for _, name := range []string{session.SessionCookieName, session.AccessCookieName, session.RefreshCookieName} {
		ck := cookieByName(rec, name)
		require.NotNil(t, ck, "cookie %s must be set", name)
		assert.True(t, ck.HttpOnly)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice", "hunter22")

	c, _ := f.jsonRequest(t, http.MethodPost, "/api/login",
		`{"username":"alice","password":"wrong-password"}`)
	badPass, ok := apperr.As(f.h.Login(c))
	require.True(t, ok)

	c, _ = f.jsonRequest(t, http.MethodPost, "/api/login",
		`{"username":"nobody","password":"hunter22"}`)
	noUser, ok := apperr.As(f.h.Login(c))
	require.True(t, ok)

	assert.Equal(t, apperr.KindAuthentication, badPass.Kind)
	assert.Equal(t, badPass.Kind, noUser.Kind)
	assert.Equal(t, badPass.Message, noUser.Message, "wrong password and unknown user must be indistinguishable")
}

// ----- refresh -----

func TestRefreshFromBody(t *testing.T) {
	f := newAuthFixture(t)
	uid := f.register(t, "alice", "hunter22")
	out, _ := f.login(t, "alice", "hunter22")

	c, rec := f.jsonRequest(t, http.MethodPut, "/api/refresh-token",
		`{"refreshToken":"`+out.RefreshToken+`"}`)
	require.NoError(t, f.h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))

	claims, err := utils.VerifyToken(data.AccessToken, "access-secret")
	require.NoError(t, err)
	assert.Equal(t, uid, claims.UserID)

	// The refresh token is not rotated; the same one keeps working.
	assert.True(t, f.tokens.has(utils.HashToken(out.RefreshToken)))
}

func TestRefreshFromHeader(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice", "hunter22")
	out, _ := f.login(t, "alice", "hunter22")

	c, rec := f.jsonRequest(t, http.MethodPut, "/api/refresh-token", "")
	c.Request().Header.Set("X-Refresh-Token", out.RefreshToken)
	require.NoError(t, f.h.Refresh(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshWithoutToken(t *testing.T) {
	f := newAuthFixture(t)

	c, _ := f.jsonRequest(t, http.MethodPut, "/api/refresh-token", "")
	e, ok := apperr.As(f.h.Refresh(c))
	require.True(t, ok)
	assert.Equal(t, apperr.KindAuthentication, e.Kind)
	assert.Equal(t, "refresh token not found", e.Message)
}

func TestRefreshRevokedToken(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice", "hunter22")
	out, _ := f.login(t, "alice", "hunter22")

	require.NoError(t, f.tokens.Delete(context.Background(), utils.HashToken(out.RefreshToken)))

	// A revoked token is rejected by the allow-list before its signature is
	// ever looked at.
	c, _ := f.jsonRequest(t, http.MethodPut, "/api/refresh-token",
		`{"refreshToken":"`+out.RefreshToken+`"}`)
	e, ok := apperr.As(f.h.Refresh(c))
	require.True(t, ok)
	assert.Equal(t, apperr.KindAuthentication, e.Kind)
	assert.Equal(t, "refresh token is not registered", e.Message)
}

func TestRefreshAllowListedGarbage(t *testing.T) {
	f := newAuthFixture(t)

	// An allow-listed value that is not a valid JWT fails signature
	// verification, not the allow-list check.
	garbage := "not-a-jwt"
	require.NoError(t, f.tokens.Add(context.Background(), "u1", utils.HashToken(garbage), time.Now().Add(time.Hour)))

	c, _ := f.jsonRequest(t, http.MethodPut, "/api/refresh-token",
		`{"refreshToken":"`+garbage+`"}`)
	e, ok := apperr.As(f.h.Refresh(c))
	require.True(t, ok)
	assert.Equal(t, apperr.KindInvariant, e.Kind)
	assert.Equal(t, "refresh token is invalid", e.Message)
}

// ----- logout -----

func TestLogoutRevokesAndClears(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice", "hunter22")
	out, _ := f.login(t, "alice", "hunter22")

	c, rec := f.jsonRequest(t, http.MethodDelete, "/api/logout",
		`{"refreshToken":"`+out.RefreshToken+`"}`)
	require.NoError(t, f.h.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.False(t, f.tokens.has(utils.HashToken(out.RefreshToken)), "allow-list row must be removed")

	for _, name := range []string{session.AccessCookieName, session.RefreshCookieName} {
		ck := cookieByName(rec, name)
		require.NotNil(t, ck)
		assert.True(t, ck.MaxAge < 0 || ck.Expires.Before(time.Now()), "cookie %s must be expired", name)
	}
}

func TestLogoutEverywhereRevokesAllTokens(t *testing.T) {
	f := newAuthFixture(t)
	uid := f.register(t, "alice", "hunter22")

	// Two logins, e.g. two devices, leave two allow-list rows.
	f.login(t, "alice", "hunter22")
	f.login(t, "alice", "hunter22")
	require.Equal(t, 2, f.tokens.countFor(uid))

	c, rec := f.jsonRequest(t, http.MethodDelete, "/api/logout-all", "")
	c.Set("user_id", uid)
	require.NoError(t, f.h.LogoutEverywhere(c))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Zero(t, f.tokens.countFor(uid), "every device's refresh token must be revoked")

	for _, name := range []string{session.AccessCookieName, session.RefreshCookieName} {
		ck := cookieByName(rec, name)
		require.NotNil(t, ck)
		assert.True(t, ck.MaxAge < 0, "cookie %s must be expired", name)
	}
}

func TestLogoutEverywhereWithoutIdentity(t *testing.T) {
	f := newAuthFixture(t)

	c, _ := f.jsonRequest(t, http.MethodDelete, "/api/logout-all", "")
	e, ok := apperr.As(f.h.LogoutEverywhere(c))
	require.True(t, ok)
	assert.Equal(t, apperr.KindAuthentication, e.Kind)
}

func TestLogoutWithoutToken(t *testing.T) {
	f := newAuthFixture(t)

	c, _ := f.jsonRequest(t, http.MethodDelete, "/api/logout", "")
	e, ok := apperr.As(f.h.Logout(c))
	require.True(t, ok)
	assert.Equal(t, apperr.KindInvariant, e.Kind)
	assert.Equal(t, "refresh token not found", e.Message)
}

// ----- me -----

func TestMeReturnsStoredProfile(t *testing.T) {
	f := newAuthFixture(t)
	uid := f.register(t, "alice", "hunter22")

	c, rec := f.jsonRequest(t, http.MethodGet, "/api/me", "")
	c.Set(session.ContextKey, &session.Session{UserID: uid, Username: "alice", CreatedAt: time.Now().UTC()})
	require.NoError(t, f.h.Me(c))

	var data struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
		Fullname string `json:"fullname"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	assert.Equal(t, uid, data.UserID)
	assert.Equal(t, "alice", data.Username)
	assert.Equal(t, "Test User", data.Fullname, "the profile comes from the user store, not the session record")
}

func TestMeWithDeletedAccount(t *testing.T) {
	f := newAuthFixture(t)

	c, _ := f.jsonRequest(t, http.MethodGet, "/api/me", "")
	c.Set(session.ContextKey, &session.Session{UserID: "gone", Username: "ghost", CreatedAt: time.Now().UTC()})
	e, ok := apperr.As(f.h.Me(c))
	require.True(t, ok)
	assert.Equal(t, apperr.KindAuthentication, e.Kind)
}
