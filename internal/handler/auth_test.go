package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariamm-maher/graduation-project-BE/internal/config"
	"github.com/mariamm-maher/graduation-project-BE/internal/middleware"
	"github.com/mariamm-maher/graduation-project-BE/internal/model"
	"github.com/mariamm-maher/graduation-project-BE/internal/queue"
	"github.com/mariamm-maher/graduation-project-BE/internal/utils"
)

type testEnv struct {
	e        *echo.Echo
	h        *AuthHandler
	users    *fakeUserStore
	roles    *fakeRoleStore
	sessions *fakeSessionStore
	profiles *fakeProfileStore
	audit    *auditRecorder
}

func newTestEnv() *testEnv {
	env := &testEnv{
		e:        echo.New(),
		users:    newFakeUserStore(),
		roles:    newFakeRoleStore(),
		sessions: newFakeSessionStore(),
		profiles: newFakeProfileStore(),
		audit:    &auditRecorder{},
	}
	cfg := config.Config{
		Env:            "test",
		AccessSecret:   "test-access-secret",
		RefreshSecret:  "test-refresh-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
		BcryptCost:     4,
		FrontendURL:    "http://localhost:5173",
	}
	env.h = &AuthHandler{
		Cfg:      cfg,
		Users:    env.users,
		Roles:    env.roles,
		Sessions: env.sessions,
		Profiles: env.profiles,
		Audit:    env.audit.record,
	}
	return env
}

func (env *testEnv) addUser(t *testing.T, email, password string) model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	return env.users.add(model.User{
		FirstName:    "Lina",
		LastName:     "Hassan",
		Email:        email,
		PasswordHash: &hash,
	})
}

// post builds an echo context for a JSON POST and runs the handler.
func (env *testEnv) post(t *testing.T, path, body string, h echo.HandlerFunc, mutate func(*http.Request, echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	if mutate != nil {
		mutate(req, c)
	}
	require.NoError(t, h(c))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == refreshCookieName {
			return ck
		}
	}
	return nil
}

func (env *testEnv) login(t *testing.T, email, password string) (*httptest.ResponseRecorder, *http.Cookie) {
	t.Helper()
	rec := env.post(t, "/api/auth/login",
		`{"email":"`+email+`","password":"`+password+`"}`, env.h.Login, nil)
	return rec, refreshCookie(rec)
}

// asUser marks the context as authenticated, the way the JWT middleware
// does after verifying an access token.
func asUser(u model.User) func(*http.Request, echo.Context) {
	return func(_ *http.Request, c echo.Context) {
		c.Set(middleware.CtxUser, u)
		c.Set(middleware.CtxUserID, u.ID)
	}
}

func withCookie(ck *http.Cookie, mutate func(*http.Request, echo.Context)) func(*http.Request, echo.Context) {
	return func(req *http.Request, c echo.Context) {
		req.AddCookie(ck)
		if mutate != nil {
			mutate(req, c)
		}
	}
}

// ----- signup -----

func TestSignup(t *testing.T) {
	env := newTestEnv()

	rec := env.post(t, "/api/auth/signup",
		`{"firstName":"Lina","lastName":"Hassan","email":"Lina@Example.com","password":"s3cret-pass"}`,
		env.h.Signup, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["needsRoleSelection"])
	assert.NotZero(t, body["userId"])

	// Email is normalized and the password is stored hashed.
	u, err := env.users.GetByEmail(context.Background(), "lina@example.com")
	require.NoError(t, err)
	require.True(t, u.HasPassword())
	assert.NotEqual(t, "s3cret-pass", *u.PasswordHash)
	assert.Equal(t, []string{queue.ActionCreateUser}, env.audit.actions())
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "lina@example.com", "s3cret-pass")

	rec := env.post(t, "/api/auth/signup",
		`{"firstName":"Other","lastName":"Person","email":"lina@example.com","password":"whatever-123"}`,
		env.h.Signup, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email is already in use", decodeBody(t, rec)["error"])
}

func TestSignupMissingFields(t *testing.T) {
	env := newTestEnv()

	rec := env.post(t, "/api/auth/signup",
		`{"firstName":"Lina","email":"lina@example.com"}`, env.h.Signup, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ----- login -----

func TestLogin(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(t, "lina@example.com", "s3cret-pass")

	rec, ck := env.login(t, "lina@example.com", "s3cret-pass")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(u.ID), body["userId"])
	assert.Equal(t, true, body["needsRoleSelection"])

	// The access token in the body verifies against the access secret.
	claims, err := utils.VerifyToken(body["accessToken"].(string), env.h.Cfg.AccessSecret)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	// The refresh token only travels in the HttpOnly cookie and its hash
	// backs a session row.
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.NotContains(t, rec.Body.String(), ck.Value)
	_, err = env.sessions.FindByHash(context.Background(), u.ID, utils.HashRefreshRaw(ck.Value))
	require.NoError(t, err)
}

// Wrong password and unknown email must be indistinguishable from the
// outside.
func TestLoginFailuresIndistinguishable(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "lina@example.com", "s3cret-pass")

	wrongPass, _ := env.login(t, "lina@example.com", "not-the-password")
	unknown, _ := env.login(t, "nobody@example.com", "s3cret-pass")

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrongPass.Body.String(), unknown.Body.String())
}

func TestLoginBlockedAccount(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(t, "lina@example.com", "s3cret-pass")
	u.Status = model.StatusBlocked
	env.users.users[u.ID] = u

	rec, ck := env.login(t, "lina@example.com", "s3cret-pass")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, ck)
}

func TestLoginReturnsAssignedRoles(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(t, "lina@example.com", "s3cret-pass")
	require.NoError(t, env.roles.Assign(context.Background(), u.ID, model.RoleIDInfluencer))

	rec, _ := env.login(t, "lina@example.com", "s3cret-pass")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, []interface{}{model.RoleInfluencer}, body["roles"])
	assert.Equal(t, false, body["needsRoleSelection"])
}

// ----- select-role -----

func TestSelectRole(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(t, "lina@example.com", "s3cret-pass")

	rec := env.post(t, "/api/auth/select-role",
		`{"userId":1,"roleId":2}`, env.h.SelectRole, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, model.RoleInfluencer, body["roleName"])
	assert.Equal(t, true, body["needsOnBoarding"])
	assert.Equal(t, model.RoleInfluencer, env.profiles.ensured[u.ID])
}

func TestSelectRoleAdminForbidden(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "lina@example.com", "s3cret-pass")

	rec := env.post(t, "/api/auth/select-role",
		`{"userId":1,"roleId":3}`, env.h.SelectRole, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, env.roles.memberships[1])
}

func TestSelectRoleAlreadyAssigned(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(t, "lina@example.com", "s3cret-pass")
	require.NoError(t, env.roles.Assign(context.Background(), u.ID, model.RoleIDOwner))

	rec := env.post(t, "/api/auth/select-role",
		`{"userId":1,"roleId":1}`, env.h.SelectRole, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "role already assigned", decodeBody(t, rec)["error"])
}

func TestSelectRoleUnknownUserOrRole(t *testing.T) {
	env := newTestEnv()
	env.addUser(t, "lina@example.com", "s3cret-pass")

	unknownUser := env.post(t, "/api/auth/select-role",
		`{"userId":99,"roleId":2}`, env.h.SelectRole, nil)
	assert.Equal(t, http.StatusNotFound, unknownUser.Code)

	unknownRole := env.post(t, "/api/auth/select-role",
		`{"userId":1,"roleId":42}`, env.h.SelectRole, nil)
	assert.Equal(t, http.StatusNotFound, unknownRole.Code)
}

// ----- refresh -----

func TestRefresh(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(t, "lina@example.com", "s3cret-pass")
	_, ck := env.login(t, "lina@example.com", "s3cret-pass")
	require.NotNil(t, ck)

	rec := env.post(t, "/api/auth/refresh-token", "", env.h.Refresh, withCookie(ck, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	claims, err := utils.VerifyToken(decodeBody(t, rec)["accessToken"].(string), env.h.Cfg.AccessSecret)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	// No rotation: the same cookie keeps refreshing.
	again := env.post(t, "/api/auth/refresh-token", "", env.h.Refresh, withCookie(ck, nil))
	assert.Equal(t, http.StatusOK, again.Code)
	assert.Nil(t, refreshCookie(rec))
}

func TestRefreshWithoutCookie(t *testing.T) {
	env := newTestEnv()
	rec := env.post(t, "/api/auth/refresh-token", "", env.h.Refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshGarbageCookie(t *testing.T) {
	env := newTestEnv()
	rec := env.post(t, "/api/auth/refresh-token", "", env.h.Refresh,
		withCookie(&http.Cookie{Name: refreshCookieName, Value: "not-a-jwt"}, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshExpiredToken(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(t, "lina@example.com", "s3cret-pass")
	expired, err := utils.NewRefreshToken(env.h.Cfg.RefreshSecret, u.ID, -1)
	require.NoError(t, err)

	rec := env.post(t, "/api/auth/refresh-token", "", env.h.Refresh,
		withCookie(&http.Cookie{Name: refreshCookieName, Value: expired.Raw}, nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "session expired, please log in again", decodeBody(t, rec)["error"])
}

// A syntactically valid refresh token without a backing session row
// must not refresh anything.
func TestRefreshWithoutSessionRow(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(t, "lina@example.com", "s3cret-pass")
	forged, err := utils.NewRefreshToken(env.h.Cfg.RefreshSecret, u.ID, 30)
	require.NoError(t, err)

	rec := env.post(t, "/api/auth/refresh-token", "", env.h.Refresh,
		withCookie(&http.Cookie{Name: refreshCookieName, Value: forged.Raw}, nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "session not found", decodeBody(t, rec)["error"])
}

func TestRefreshRevokedSession(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(t, "lina@example.com", "s3cret-pass")
	_, ck := env.login(t, "lina@example.com", "s3cret-pass")
	require.NotNil(t, ck)

	s, err := env.sessions.FindByHash(context.Background(), u.ID, utils.HashRefreshRaw(ck.Value))
	require.NoError(t, err)
	require.NoError(t, env.sessions.Revoke(context.Background(), s.ID, u.ID))

	rec := env.post(t, "/api/auth/refresh-token", "", env.h.Refresh, withCookie(ck, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "session revoked", decodeBody(t, rec)["error"])
}

// ----- logout -----

func TestLogout(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(t, "lina@example.com", "s3cret-pass")
	_, ck := env.login(t, "lina@example.com", "s3cret-pass")
	require.NotNil(t, ck)

	rec := env.post(t, "/api/auth/logout", "", env.h.Logout, withCookie(ck, asUser(u)))
	require.Equal(t, http.StatusOK, rec.Code)

	// Session is revoked and the cookie cleared.
	s, err := env.sessions.FindByHash(context.Background(), u.ID, utils.HashRefreshRaw(ck.Value))
	require.NoError(t, err)
	assert.True(t, s.Revoked())
	cleared := refreshCookie(rec)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	// The revoked session no longer refreshes.
	refresh := env.post(t, "/api/auth/refresh-token", "", env.h.Refresh, withCookie(ck, nil))
	assert.Equal(t, http.StatusUnauthorized, refresh.Code)
}

func TestLogoutWithoutCookie(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(t, "lina@example.com", "s3cret-pass")

	rec := env.post(t, "/api/auth/logout", "", env.h.Logout, asUser(u))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no active session", decodeBody(t, rec)["error"])
}

// A cookie from another user's session revokes nothing: the lookup runs
// under the authenticated user id.
func TestLogoutForeignCookieHarmless(t *testing.T) {
	env := newTestEnv()
	alice := env.addUser(t, "alice@example.com", "s3cret-pass")
	bob := env.addUser(t, "bob@example.com", "s3cret-pass2")
	_, aliceCk := env.login(t, "alice@example.com", "s3cret-pass")
	require.NotNil(t, aliceCk)

	rec := env.post(t, "/api/auth/logout", "", env.h.Logout, withCookie(aliceCk, asUser(bob)))
	require.Equal(t, http.StatusOK, rec.Code)

	// Alice's session survives and still refreshes.
	s, err := env.sessions.FindByHash(context.Background(), alice.ID, utils.HashRefreshRaw(aliceCk.Value))
	require.NoError(t, err)
	assert.False(t, s.Revoked())
}

// ----- logout-all -----

func TestLogoutAll(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(t, "lina@example.com", "s3cret-pass")
	_, ck1 := env.login(t, "lina@example.com", "s3cret-pass")
	_, ck2 := env.login(t, "lina@example.com", "s3cret-pass")
	require.NotNil(t, ck1)
	require.NotNil(t, ck2)

	rec := env.post(t, "/api/auth/logout-all", "", env.h.LogoutAll, asUser(u))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decodeBody(t, rec)["revoked"])

	for _, ck := range []*http.Cookie{ck1, ck2} {
		refresh := env.post(t, "/api/auth/refresh-token", "", env.h.Refresh, withCookie(ck, nil))
		assert.Equal(t, http.StatusUnauthorized, refresh.Code)
	}
}

// Sessions are per device: revoking one login leaves the other working.
func TestMultiDeviceSessionsIndependent(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(t, "lina@example.com", "s3cret-pass")
	_, phone := env.login(t, "lina@example.com", "s3cret-pass")
	_, laptop := env.login(t, "lina@example.com", "s3cret-pass")
	require.NotNil(t, phone)
	require.NotNil(t, laptop)
	require.NotEqual(t, phone.Value, laptop.Value)

	logout := env.post(t, "/api/auth/logout", "", env.h.Logout, withCookie(phone, asUser(u)))
	require.Equal(t, http.StatusOK, logout.Code)

	dead := env.post(t, "/api/auth/refresh-token", "", env.h.Refresh, withCookie(phone, nil))
	alive := env.post(t, "/api/auth/refresh-token", "", env.h.Refresh, withCookie(laptop, nil))
	assert.Equal(t, http.StatusUnauthorized, dead.Code)
	assert.Equal(t, http.StatusOK, alive.Code)
}
