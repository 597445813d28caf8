package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mariamm-maher/graduation-project-BE/internal/model"
)

// UserRepo persists user identity records.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,first_name,last_name,email,password_hash,google_id,status,created_at,updated_at"

// Create inserts a local-credential user and returns its ID. The
// password hash must already be computed by the caller.
func (r *UserRepo) Create(ctx context.Context, firstName, lastName, email, passwordHash string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (first_name, last_name, email, password_hash, status) VALUES (?,?,?,?,?)",
		firstName, lastName, email, passwordHash, model.StatusActive)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateOAuth inserts a passwordless user linked to a Google identity.
func (r *UserRepo) CreateOAuth(ctx context.Context, firstName, lastName, email, googleID string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (first_name, last_name, email, google_id, status) VALUES (?,?,?,?,?)",
		firstName, lastName, email, googleID, model.StatusActive)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email. Returns ErrNotFound
// when no row matches.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// GetByGoogleID fetches a user by its linked provider identifier.
func (r *UserRepo) GetByGoogleID(ctx context.Context, googleID string) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE google_id=? LIMIT 1", googleID)
}

// LinkGoogleID attaches a provider identifier to an existing account.
// Used when an OAuth login matches a local account by email.
func (r *UserRepo) LinkGoogleID(ctx context.Context, userID uint64, googleID string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET google_id=? WHERE id=? AND google_id IS NULL", googleID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) scanOne(ctx context.Context, query string, args ...any) (model.User, error) {
	var (
		u      model.User
		hash   sql.NullString
		google sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &hash, &google, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	if hash.Valid {
		u.PasswordHash = &hash.String
	}
	if google.Valid {
		u.GoogleID = &google.String
	}
	return u, nil
}

// isDuplicate detects MySQL duplicate-key errors (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
