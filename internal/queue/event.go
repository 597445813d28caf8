// Package queue defines the audit events exchanged over the message
// broker and the background consumer that records them.
package queue

// Audit action names. One event is published per security-relevant
// state change; publishing is fire-and-forget so a broker outage never
// delays or fails the primary response.
const (
	ActionCreateUser    = "CREATE_USER"
	ActionLogin         = "LOGIN"
	ActionOAuthLogin    = "OAUTH_LOGIN"
	ActionChangeRole    = "CHANGE_ROLE"
	ActionLogout        = "LOGOUT"
	ActionLogoutAll     = "LOGOUT_ALL"
	ActionRevokeSession = "REVOKE_SESSION"
)

// AuditEvent is the audit-trail payload. It contains enough information
// for downstream consumers to log or alert without querying the primary
// database.
type AuditEvent struct {
	ActorID  uint64 `json:"actor_id"`
	Actor    string `json:"actor"` // actor email, or "system"
	Action   string `json:"action"`
	Entity   string `json:"entity"`
	EntityID uint64 `json:"entity_id,omitempty"`
	Meta     string `json:"meta,omitempty"`
	At       string `json:"at"` // RFC3339 UTC
}
