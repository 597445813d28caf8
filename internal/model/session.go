package model

import "time"

// Session models one active login in the `sessions` table. A user may
// hold many concurrent sessions, one per device or client. The raw
// refresh token is never stored; only its SHA-256 hash. A session is
// the unit of revocation: logout revokes one row, logout-all revokes
// every active row for the user.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – owner of the session.
//  RefreshTokenHash – SHA-256 hex digest of the refresh token.
//  IP               – client IP captured at login (descriptive only).
//  UserAgent        – client user-agent string (descriptive only).
//  Device           – coarse device label derived from the user agent.
//  ExpiresAt        – when the session expires regardless of the token.
//  RevokedAt        – when the session was revoked (nil if still active).
//  CreatedAt        – timestamp of creation.
type Session struct {
	ID               uint64     // sessions.id
	UserID           uint64     // sessions.user_id
	RefreshTokenHash string     // sessions.refresh_token_hash
	IP               string     // sessions.ip
	UserAgent        string     // sessions.user_agent
	Device           string     // sessions.device
	ExpiresAt        time.Time  // sessions.expires_at
	RevokedAt        *time.Time // sessions.revoked_at (nullable)
	CreatedAt        time.Time  // sessions.created_at
}

// Revoked reports whether the session has been explicitly revoked.
func (s Session) Revoked() bool { return s.RevokedAt != nil }

// Expired reports whether the session's own expiry has passed. Expiry
// is a computed predicate, never an eagerly written state.
func (s Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// Active reports whether the session can still back a token refresh:
// not revoked and not past its expiry.
func (s Session) Active(now time.Time) bool { return !s.Revoked() && !s.Expired(now) }
