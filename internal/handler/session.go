package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mariamm-maher/graduation-project-BE/internal/middleware"
	"github.com/mariamm-maher/graduation-project-BE/internal/queue"
	"github.com/mariamm-maher/graduation-project-BE/internal/repository"
	"github.com/mariamm-maher/graduation-project-BE/internal/utils"
)

// sessionInfo is the client-facing view of one active login. The hash
// never leaves the server; Current flags the session backing the
// caller's own refresh cookie.
type sessionInfo struct {
	ID        uint64    `json:"id"`
	IP        string    `json:"ip"`
	Device    string    `json:"device"`
	UserAgent string    `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Current   bool      `json:"current"`
}

// ListSessions returns the caller's active sessions, newest first.
func (h *AuthHandler) ListSessions(c echo.Context) error {
	uid, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sessions, err := h.Sessions.ListActive(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list sessions failed"})
	}

	currentHash := ""
	if raw := readRefreshCookie(c); raw != "" {
		currentHash = utils.HashRefreshRaw(raw)
	}

	out := make([]sessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionInfo{
			ID:        s.ID,
			IP:        s.IP,
			Device:    s.Device,
			UserAgent: s.UserAgent,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
			Current:   currentHash != "" && s.RefreshTokenHash == currentHash,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"sessions": out, "count": len(out)})
}

// RevokeSession revokes one session by id. Sessions belonging to other
// users surface as not-found rather than forbidden so ids cannot be
// probed; revoking twice is an explicit conflict, not a silent success.
func (h *AuthHandler) RevokeSession(c echo.Context) error {
	uid, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, err := strconv.ParseUint(c.Param("sessionId"), 10, 64)
	if err != nil || sessionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Revoke(ctx, sessionID, uid); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		case errors.Is(err, repository.ErrAlreadyRevoked):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "session already revoked"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke session failed"})
		}
	}

	h.audit(uid, h.actorEmail(c), queue.ActionRevokeSession, "SESSION", sessionID, "")
	return c.JSON(http.StatusOK, echo.Map{"message": "session revoked"})
}
