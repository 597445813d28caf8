package model

// Role names form a fixed enumeration seeded once at startup. ADMIN is
// never assignable through the role-selection flow; the guard in the
// handler checks both the id and the name so a client-supplied id is
// never trusted alone.
const (
	RoleOwner      = "OWNER"
	RoleInfluencer = "INFLUENCER"
	RoleAdmin      = "ADMIN"
)

// Seeded role identifiers. The seeder inserts the three roles with
// explicit ids in this order, anchoring the id-based ADMIN guard.
const (
	RoleIDOwner      uint64 = 1
	RoleIDInfluencer uint64 = 2
	RoleIDAdmin      uint64 = 3
)

// Role represents a row in the `roles` table. Users reference roles
// through the user_roles join table; a user may hold zero, one, or
// several roles at once.
//
// Fields:
//  ID   – numeric identifier of the role.
//  Name – unique role name (OWNER, INFLUENCER, ADMIN).
type Role struct {
	ID   uint64 // roles.id
	Name string // roles.name
}
