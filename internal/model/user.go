package model

import "time"

// Account status values stored in users.status. An administrator may
// block or suspend an account; the auth flows only ever read the value.
const (
	StatusActive     = "active"
	StatusBlocked    = "blocked"
	StatusSuspended  = "suspended"
	StatusIncomplete = "incomplete"
)

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  FirstName    – given name supplied at signup or taken from the OAuth profile.
//  LastName     – family name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password; nil for OAuth-only accounts.
//  GoogleID     – external provider identifier; nil when never linked.
//  Status       – account status (active/blocked/suspended/incomplete).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	Email        string    // users.email
	PasswordHash *string   // users.password_hash (nullable)
	GoogleID     *string   // users.google_id (nullable)
	Status       string    // users.status
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// HasPassword reports whether the account can authenticate with a
// local password. OAuth-only accounts store no hash at all.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
