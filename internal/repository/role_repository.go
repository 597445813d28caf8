package repository

import (
	"context"
	"database/sql"

	"github.com/mariamm-maher/graduation-project-BE/internal/model"
)

// RoleRepo manages the fixed role enumeration and the user_roles
// membership relation.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// EnsureSeeded inserts the role enumeration once when the table is
// empty. The ids are explicit so OWNER=1, INFLUENCER=2, ADMIN=3 holds
// on every deployment; the select-role guard relies on the ADMIN id.
func (r *RoleRepo) EnsureSeeded(ctx context.Context) error {
	var n int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM roles").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO roles (id, name) VALUES (?,?),(?,?),(?,?)",
		model.RoleIDOwner, model.RoleOwner,
		model.RoleIDInfluencer, model.RoleInfluencer,
		model.RoleIDAdmin, model.RoleAdmin)
	return err
}

// GetByID fetches a role by id. Returns ErrNotFound for unknown ids.
func (r *RoleRepo) GetByID(ctx context.Context, id uint64) (model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name FROM roles WHERE id=? LIMIT 1", id).Scan(&role.ID, &role.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Role{}, ErrNotFound
		}
		return model.Role{}, err
	}
	return role, nil
}

// RolesOf returns the roles currently held by a user, ordered by role id.
func (r *RoleRepo) RolesOf(ctx context.Context, userID uint64) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT r.id, r.name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ?
		ORDER BY r.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// Assign links a role to a user. Returns ErrRoleAlreadyAssigned when
// the membership row already exists.
func (r *RoleRepo) Assign(ctx context.Context, userID, roleID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role_id) VALUES (?,?)", userID, roleID)
	if err != nil {
		if isDuplicate(err) {
			return ErrRoleAlreadyAssigned
		}
		return err
	}
	return nil
}
