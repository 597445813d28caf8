package auth

import (
	"context"
	"strings"

	"github.com/mariamm-maher/graduation-project-BE/internal/utils"
)

// TokenConfig carries the two signing secrets and their lifetimes. The
// secrets must differ; access tokens live minutes, refresh tokens days.
type TokenConfig struct {
	AccessSecret   string
	RefreshSecret  string
	AccessTTLMin   int
	RefreshTTLDays int
}

// ClientMeta is the descriptive, non-authoritative client information
// recorded on a session row.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// StartSession issues an access/refresh token pair and persists the
// session row as a unit. If the row cannot be written, no tokens are
// returned: a token pair must never outlive a session that does not
// exist.
func StartSession(ctx context.Context, sessions SessionStore, tc TokenConfig, userID uint64, meta ClientMeta) (utils.AccessToken, utils.RefreshToken, uint64, error) {
	access, err := utils.NewAccessToken(tc.AccessSecret, userID, tc.AccessTTLMin)
	if err != nil {
		return utils.AccessToken{}, utils.RefreshToken{}, 0, err
	}
	refresh, err := utils.NewRefreshToken(tc.RefreshSecret, userID, tc.RefreshTTLDays)
	if err != nil {
		return utils.AccessToken{}, utils.RefreshToken{}, 0, err
	}
	sessionID, err := sessions.Create(ctx, userID,
		utils.HashRefreshRaw(refresh.Raw), meta.IP, meta.UserAgent,
		DeviceFromUserAgent(meta.UserAgent), refresh.Exp)
	if err != nil {
		return utils.AccessToken{}, utils.RefreshToken{}, 0, err
	}
	return access, refresh, sessionID, nil
}

// DeviceFromUserAgent derives a coarse device label from the user-agent
// string. Purely descriptive; nothing authorizes against it.
func DeviceFromUserAgent(ua string) string {
	if ua == "" {
		return "unknown"
	}
	lower := strings.ToLower(ua)
	switch {
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		return "tablet"
	case strings.Contains(lower, "mobi") || strings.Contains(lower, "android"):
		return "mobile"
	default:
		return "desktop"
	}
}
