package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/mariamm-maher/graduation-project-BE/internal/auth"
	"github.com/mariamm-maher/graduation-project-BE/internal/config"
	"github.com/mariamm-maher/graduation-project-BE/internal/model"
	"github.com/mariamm-maher/graduation-project-BE/internal/queue"
)

const (
	stateCookieName = "oauthState"
	userinfoURL     = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// OAuthHandler implements the Google login flow: redirect out with a
// state nonce, then exchange the callback code, resolve the identity
// onto a local account and start a session exactly like a local login.
type OAuthHandler struct {
	Cfg      config.Config
	Users    auth.UserStore
	Roles    auth.RoleStore
	Sessions auth.SessionStore
	Audit    func(queue.AuditEvent)

	conf *oauth2.Config // nil when Google OAuth is not configured
}

func NewOAuthHandler(cfg config.Config, u auth.UserStore, r auth.RoleStore, s auth.SessionStore) *OAuthHandler {
	h := &OAuthHandler{Cfg: cfg, Users: u, Roles: r, Sessions: s, Audit: PublishAudit}
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" && cfg.GoogleRedirectURL != "" {
		h.conf = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return h
}

// googleProfile mirrors the fields of the Google userinfo response the
// resolver needs.
type googleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

// GoogleRedirect sends the client to Google's consent screen. The state
// nonce round-trips through a short-lived cookie and is checked on the
// callback.
func (h *OAuthHandler) GoogleRedirect(c echo.Context) error {
	if h.conf == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "google oauth is not configured"})
	}
	state := uuid.NewString()
	// SameSite=Lax, not Strict: the callback arrives as a cross-site
	// redirect from Google and Strict would drop the cookie.
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.Cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, h.conf.AuthCodeURL(state))
}

// GoogleCallback finishes the flow: state check, code exchange, profile
// fetch, identity resolution, session start, redirect to the frontend.
// The access token and role hints travel as query parameters; the
// refresh token only ever rides the cookie.
func (h *OAuthHandler) GoogleCallback(c echo.Context) error {
	if h.conf == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "google oauth is not configured"})
	}

	state := c.QueryParam("state")
	ck, err := c.Cookie(stateCookieName)
	if state == "" || err != nil || ck == nil || ck.Value != state {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid oauth state"})
	}
	c.SetCookie(&http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "authorization code is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	tok, err := h.conf.Exchange(ctx, code)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "code exchange failed"})
	}

	profile, err := fetchGoogleProfile(ctx, h.conf, tok)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "fetch google profile failed"})
	}

	u, isNew, err := auth.ResolveOAuthIdentity(ctx, h.Users, auth.OAuthProfile{
		GoogleID:      profile.ID,
		Email:         profile.Email,
		EmailVerified: profile.VerifiedEmail,
		FirstName:     profile.GivenName,
		LastName:      profile.FamilyName,
	})
	if err != nil {
		if errors.Is(err, auth.ErrUnverifiedEmail) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "google account email is not verified"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "google login failed"})
	}
	if u.Status == model.StatusBlocked || u.Status == model.StatusSuspended {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is " + u.Status})
	}

	access, refresh, _, err := auth.StartSession(ctx, h.Sessions, auth.TokenConfig{
		AccessSecret:   h.Cfg.AccessSecret,
		RefreshSecret:  h.Cfg.RefreshSecret,
		AccessTTLMin:   h.Cfg.AccessTTLMin,
		RefreshTTLDays: h.Cfg.RefreshTTLDays,
	}, u.ID, clientMeta(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "google login failed"})
	}

	roles, err := h.Roles.RolesOf(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "google login failed"})
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}

	setRefreshCookie(c, h.Cfg, refresh.Raw, refresh.Exp)
	if h.Audit != nil {
		h.Audit(queue.AuditEvent{
			ActorID: u.ID,
			Actor:   u.Email,
			Action:  queue.ActionOAuthLogin,
			Entity:  "SESSION",
			Meta:    "provider=google new=" + strconv.FormatBool(isNew),
			At:      time.Now().UTC().Format(time.RFC3339),
		})
	}

	q := url.Values{}
	q.Set("accessToken", access.Token)
	q.Set("roles", strings.Join(names, ","))
	q.Set("needsRoleSelection", strconv.FormatBool(len(names) == 0))
	q.Set("isNewUser", strconv.FormatBool(isNew))
	return c.Redirect(http.StatusFound, strings.TrimRight(h.Cfg.FrontendURL, "/")+"/auth/callback?"+q.Encode())
}

// fetchGoogleProfile loads the userinfo document with the freshly
// exchanged token.
func fetchGoogleProfile(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (googleProfile, error) {
	client := conf.Client(ctx, tok)
	resp, err := client.Get(userinfoURL)
	if err != nil {
		return googleProfile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return googleProfile{}, errors.New("userinfo request failed: " + resp.Status)
	}
	var p googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return googleProfile{}, err
	}
	return p, nil
}
