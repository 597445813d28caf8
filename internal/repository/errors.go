// Package repository implements MySQL persistence for users, roles,
// sessions and profiles. Sentinel errors defined here let handlers
// distinguish failure scenarios without inspecting driver errors:
// ErrNotFound maps to 404 (or 401 on auth paths), ErrAlreadyRevoked and
// ErrRoleAlreadyAssigned to conflict responses.
package repository

import "errors"

// ErrEmailExists is returned when an insert collides with the unique
// email index. Handlers translate this into an HTTP 400/409 conflict.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a looked-up row does not exist or is not
// visible to the caller (e.g. a session owned by a different user).
var ErrNotFound = errors.New("not found")

// ErrAlreadyRevoked is returned when revoking a session whose
// revoked_at is already set. Idempotency is surfaced explicitly rather
// than silently succeeding.
var ErrAlreadyRevoked = errors.New("session already revoked")

// ErrRoleAlreadyAssigned is returned when linking a role the user
// already holds.
var ErrRoleAlreadyAssigned = errors.New("role already assigned")
