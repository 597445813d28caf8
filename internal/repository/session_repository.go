package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mariamm-maher/graduation-project-BE/internal/model"
)

// SessionRepo persists login sessions. Only the SHA-256 hash of a
// refresh token is ever written; raw tokens live exclusively in client
// cookies. Rows are never deleted here: revocation sets revoked_at and
// expiry is evaluated as a predicate at query time.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

const sessionColumns = "id,user_id,refresh_token_hash,ip,user_agent,device,expires_at,revoked_at,created_at"

// Create inserts a session row for a fresh login and returns its id.
// Concurrent logins for the same user insert independent rows; there is
// no per-user singleton slot to contend on.
func (r *SessionRepo) Create(ctx context.Context, userID uint64, tokenHash, ip, userAgent, device string, expiresAt time.Time) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (user_id, refresh_token_hash, ip, user_agent, device, expires_at) VALUES (?,?,?,?,?,?)",
		userID, tokenHash, ip, userAgent, device, expiresAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByHash returns the session matching (user, token hash) regardless
// of its state, so the refresh flow can distinguish a missing session
// from an expired or revoked one. Returns ErrNotFound when no row
// matches.
func (r *SessionRepo) FindByHash(ctx context.Context, userID uint64, tokenHash string) (model.Session, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE user_id=? AND refresh_token_hash=? LIMIT 1",
		userID, tokenHash)
	return scanSession(row)
}

// Revoke sets revoked_at on a session owned by the given user. A
// session belonging to someone else is reported as ErrNotFound rather
// than ErrForbidden so the endpoint does not leak session existence.
// Revoking twice returns ErrAlreadyRevoked.
func (r *SessionRepo) Revoke(ctx context.Context, sessionID, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE id=? AND user_id=? AND revoked_at IS NULL",
		sessionID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// Nothing updated: either the row does not exist for this user or it
	// was already revoked. Look again to report which.
	var revoked sql.NullTime
	err = r.DB.QueryRowContext(ctx,
		"SELECT revoked_at FROM sessions WHERE id=? AND user_id=? LIMIT 1",
		sessionID, userID).Scan(&revoked)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if revoked.Valid {
		return ErrAlreadyRevoked
	}
	return ErrNotFound
}

// RevokeAll revokes every currently-active session for a user and
// returns the number of rows swept. A session committed concurrently
// with this statement may survive; the sweep is best effort by design.
func (r *SessionRepo) RevokeAll(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()",
		userID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ListActive returns the user's active sessions, newest first. Expired
// rows are filtered by the query predicate even when revoked_at is
// still null.
func (r *SessionRepo) ListActive(ctx context.Context, userID uint64) ([]model.Session, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE user_id=? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP() ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanSession(row rowScanner) (model.Session, error) {
	var (
		s       model.Session
		revoked sql.NullTime
	)
	err := row.Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.IP, &s.UserAgent, &s.Device,
		&s.ExpiresAt, &revoked, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Session{}, ErrNotFound
		}
		return model.Session{}, err
	}
	if revoked.Valid {
		t := revoked.Time
		s.RevokedAt = &t
	}
	return s, nil
}
