package model

import "time"

// Profile is an empty role-specific profile shell provisioned when a
// user selects a role. At most one profile exists per (user, role-kind)
// pair; the remaining columns are filled in later by the onboarding
// flows, which are outside the auth core.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owning user, unique per table.
//  CreatedAt – timestamp of provisioning.
type Profile struct {
	ID        uint64    // owner_profiles.id / influencer_profiles.id
	UserID    uint64    // *.user_id
	CreatedAt time.Time // *.created_at
}
