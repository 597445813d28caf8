package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mariamm-maher/graduation-project-BE/internal/auth"
	"github.com/mariamm-maher/graduation-project-BE/internal/config"
	"github.com/mariamm-maher/graduation-project-BE/internal/middleware"
	"github.com/mariamm-maher/graduation-project-BE/internal/model"
	"github.com/mariamm-maher/graduation-project-BE/internal/queue"
	"github.com/mariamm-maher/graduation-project-BE/internal/repository"
	"github.com/mariamm-maher/graduation-project-BE/internal/utils"
)

// refreshCookieName is the cookie carrying the raw refresh token. The
// cookie is HttpOnly and SameSite=Strict; the token never travels in a
// body or header in either direction after login.
const refreshCookieName = "refreshToken"

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    auth.UserStore
	Roles    auth.RoleStore
	Sessions auth.SessionStore
	Profiles auth.ProfileStore

	// Audit receives audit events fire-and-forget; nil disables the
	// trail (tests). The default publishes to RabbitMQ in a goroutine
	// and discards any error.
	Audit func(queue.AuditEvent)
}

func NewAuthHandler(cfg config.Config, u auth.UserStore, r auth.RoleStore, s auth.SessionStore, p auth.ProfileStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Roles: r, Sessions: s, Profiles: p, Audit: PublishAudit}
}

// ----- DTOs -----

type signupReq struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type selectRoleReq struct {
	UserID uint64 `json:"userId"`
	RoleID uint64 `json:"roleId"`
}

type loginResp struct {
	UserID             uint64   `json:"userId"`
	Email              string   `json:"email"`
	AccessToken        string   `json:"accessToken"`
	Roles              []string `json:"roles"`
	NeedsRoleSelection bool     `json:"needsRoleSelection"`
}

// Signup: create a local-credential user. The new user holds zero roles
// until the role-selection step, so the response always signals
// needsRoleSelection.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "firstName, lastName, email and password are required"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.FirstName, req.LastName, req.Email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	h.audit(uid, req.Email, queue.ActionCreateUser, "USER", uid, "")

	return c.JSON(http.StatusCreated, echo.Map{
		"userId":             uid,
		"needsRoleSelection": true,
	})
}

// Login: verify credentials, then issue a token pair and a session row
// as a unit. Every credential failure maps to the same generic 401 so
// the endpoint cannot distinguish accounts.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := auth.VerifyLocalCredentials(ctx, h.Users, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if u.Status == model.StatusBlocked || u.Status == model.StatusSuspended {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is " + u.Status})
	}

	access, refresh, _, err := auth.StartSession(ctx, h.Sessions, h.tokenConfig(), u.ID, clientMeta(c))
	if err != nil {
		// No session row means no tokens leave the server.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	names, err := h.roleNames(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	setRefreshCookie(c, h.Cfg, refresh.Raw, refresh.Exp)
	h.audit(u.ID, u.Email, queue.ActionLogin, "SESSION", 0, "device="+auth.DeviceFromUserAgent(c.Request().UserAgent()))

	return c.JSON(http.StatusOK, loginResp{
		UserID:             u.ID,
		Email:              u.Email,
		AccessToken:        access.Token,
		Roles:              names,
		NeedsRoleSelection: len(names) == 0,
	})
}

// SelectRole links a role to a user post-signup and provisions the
// matching empty profile. ADMIN is rejected by id and by name; a
// client-supplied role id is never trusted alone.
func (h *AuthHandler) SelectRole(c echo.Context) error {
	var req selectRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.UserID == 0 || req.RoleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId and roleId are required"})
	}
	if req.RoleID == model.RoleIDAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "ADMIN role cannot be selected"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "select role failed"})
	}
	role, err := h.Roles.GetByID(ctx, req.RoleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "select role failed"})
	}
	if role.Name == model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "ADMIN role cannot be selected"})
	}

	if err := h.Roles.Assign(ctx, u.ID, role.ID); err != nil {
		if errors.Is(err, repository.ErrRoleAlreadyAssigned) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "role already assigned"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "select role failed"})
	}
	if err := h.Profiles.Ensure(ctx, u.ID, role.Name); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "select role failed"})
	}

	h.audit(u.ID, u.Email, queue.ActionChangeRole, "ROLE", role.ID, "assigned "+role.Name)

	return c.JSON(http.StatusCreated, echo.Map{
		"userId":         u.ID,
		"roleId":         role.ID,
		"roleName":       role.Name,
		"needsOnBoarding": true,
	})
}

// Refresh exchanges a valid refresh cookie for a new access token. The
// refresh token and session are not rotated: the same cookie keeps
// working until the session expires or is revoked.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := readRefreshCookie(c)
	if raw == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token is required"})
	}

	claims, err := utils.VerifyToken(raw, h.Cfg.RefreshSecret)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired, please log in again"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Sessions.FindByHash(ctx, claims.UserID, utils.HashRefreshRaw(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	// A forged long-lived token still dies here: the session row has its
	// own expiry and revocation marker.
	if s.Revoked() {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session revoked"})
	}
	if s.Expired(time.Now().UTC()) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired, please log in again"})
	}

	access, err := utils.NewAccessToken(h.Cfg.AccessSecret, claims.UserID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"accessToken": access.Token})
}

// Logout revokes the session backing the refresh cookie. The session is
// looked up under the authenticated user id so a replayed cookie cannot
// revoke someone else's session. The cookie is cleared whether or not a
// session was found.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	raw := readRefreshCookie(c)
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no active session"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Sessions.FindByHash(ctx, uid, utils.HashRefreshRaw(raw))
	if err == nil {
		if err := h.Sessions.Revoke(ctx, s.ID, uid); err != nil &&
			!errors.Is(err, repository.ErrAlreadyRevoked) && !errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}

	clearRefreshCookie(c, h.Cfg)
	h.audit(uid, h.actorEmail(c), queue.ActionLogout, "SESSION", 0, "")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// LogoutAll revokes every active session for the authenticated user.
// Intended both for the user-facing control and as a security response
// to a detected compromise.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	uid, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Sessions.RevokeAll(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}

	clearRefreshCookie(c, h.Cfg)
	h.audit(uid, h.actorEmail(c), queue.ActionLogoutAll, "SESSION", 0, "")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out from all devices", "revoked": n})
}

// ----- shared helpers -----

func (h *AuthHandler) tokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		AccessSecret:   h.Cfg.AccessSecret,
		RefreshSecret:  h.Cfg.RefreshSecret,
		AccessTTLMin:   h.Cfg.AccessTTLMin,
		RefreshTTLDays: h.Cfg.RefreshTTLDays,
	}
}

func (h *AuthHandler) roleNames(ctx context.Context, userID uint64) ([]string, error) {
	rs, err := h.Roles.RolesOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rs))
	for _, r := range rs {
		names = append(names, r.Name)
	}
	return names, nil
}

func (h *AuthHandler) actorEmail(c echo.Context) string {
	if u, ok := c.Get(middleware.CtxUser).(model.User); ok {
		return u.Email
	}
	return "system"
}

// audit emits one audit event through the configured sink. Failures are
// the sink's problem; nothing here blocks or propagates.
func (h *AuthHandler) audit(actorID uint64, actor, action, entity string, entityID uint64, meta string) {
	if h.Audit == nil {
		return
	}
	h.Audit(queue.AuditEvent{
		ActorID:  actorID,
		Actor:    actor,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Meta:     meta,
		At:       time.Now().UTC().Format(time.RFC3339),
	})
}

func clientMeta(c echo.Context) auth.ClientMeta {
	return auth.ClientMeta{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

func readRefreshCookie(c echo.Context) string {
	ck, err := c.Cookie(refreshCookieName)
	if err != nil || ck == nil {
		return ""
	}
	return strings.TrimSpace(ck.Value)
}

// setRefreshCookie hands the raw refresh token to the client in a
// cookie scripts cannot read. Secure is set in production only so local
// development over plain HTTP keeps working.
func setRefreshCookie(c echo.Context, cfg config.Config, raw string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    raw,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(time.Until(exp) / time.Second),
		HttpOnly: true,
		Secure:   cfg.Production(),
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(c echo.Context, cfg config.Config) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Production(),
		SameSite: http.SameSiteStrictMode,
	})
}
