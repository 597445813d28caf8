package repository

import (
	"context"
	"database/sql"

	"github.com/mariamm-maher/graduation-project-BE/internal/model"
)

// ProfileRepo provisions the empty role-specific profile shells created
// by the role-selection flow. Filling profiles in belongs to the
// onboarding endpoints, not the auth core.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// Ensure creates the profile row matching the role kind if one does not
// already exist. user_id is unique per table, so a repeat call is a
// no-op; at most one profile exists per (user, role-kind) pair.
func (r *ProfileRepo) Ensure(ctx context.Context, userID uint64, roleName string) error {
	var table string
	switch roleName {
	case model.RoleOwner:
		table = "owner_profiles"
	case model.RoleInfluencer:
		table = "influencer_profiles"
	default:
		// ADMIN and unknown roles carry no profile.
		return nil
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO "+table+" (user_id) VALUES (?)", userID)
	return err
}
