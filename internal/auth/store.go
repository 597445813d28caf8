// Package auth implements the credential and session core: verifying
// local and OAuth identities, and pairing token issuance with session
// persistence. Handlers compose these functions explicitly; there is no
// global strategy registry.
package auth

import (
	"context"
	"time"

	"github.com/mariamm-maher/graduation-project-BE/internal/model"
)

// UserStore is the user persistence surface the auth core needs. The
// MySQL implementation lives in internal/repository; tests use
// in-memory fakes.
type UserStore interface {
	Create(ctx context.Context, firstName, lastName, email, passwordHash string) (uint64, error)
	CreateOAuth(ctx context.Context, firstName, lastName, email, googleID string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (model.User, error)
	LinkGoogleID(ctx context.Context, userID uint64, googleID string) error
}

// RoleStore exposes the role enumeration and membership relation.
type RoleStore interface {
	GetByID(ctx context.Context, id uint64) (model.Role, error)
	RolesOf(ctx context.Context, userID uint64) ([]model.Role, error)
	Assign(ctx context.Context, userID, roleID uint64) error
}

// SessionStore persists one row per active login. FindByHash returns
// the row regardless of state so callers can distinguish missing,
// expired and revoked sessions.
type SessionStore interface {
	Create(ctx context.Context, userID uint64, tokenHash, ip, userAgent, device string, expiresAt time.Time) (uint64, error)
	FindByHash(ctx context.Context, userID uint64, tokenHash string) (model.Session, error)
	Revoke(ctx context.Context, sessionID, userID uint64) error
	RevokeAll(ctx context.Context, userID uint64) (int64, error)
	ListActive(ctx context.Context, userID uint64) ([]model.Session, error)
}

// ProfileStore provisions the empty role-specific profile created on
// role selection.
type ProfileStore interface {
	Ensure(ctx context.Context, userID uint64, roleName string) error
}
