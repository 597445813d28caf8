package handler

import (
	"context"
	"sort"
	"time"

	"github.com/mariamm-maher/graduation-project-BE/internal/model"
	"github.com/mariamm-maher/graduation-project-BE/internal/queue"
	"github.com/mariamm-maher/graduation-project-BE/internal/repository"
)

// In-memory store fakes backing the handler tests. They mirror the
// MySQL repositories' observable behavior, including the sentinel
// errors handlers branch on.

type fakeUserStore struct {
	users  map[uint64]model.User
	nextID uint64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]model.User{}, nextID: 1}
}

func (f *fakeUserStore) add(u model.User) model.User {
	if u.ID == 0 {
		u.ID = f.nextID
	}
	if u.Status == "" {
		u.Status = model.StatusActive
	}
	f.users[u.ID] = u
	if u.ID >= f.nextID {
		f.nextID = u.ID + 1
	}
	return u
}

func (f *fakeUserStore) Create(_ context.Context, firstName, lastName, email, passwordHash string) (uint64, error) {
	for _, u := range f.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash := passwordHash
	u := f.add(model.User{FirstName: firstName, LastName: lastName, Email: email, PasswordHash: &hash})
	return u.ID, nil
}

func (f *fakeUserStore) CreateOAuth(_ context.Context, firstName, lastName, email, googleID string) (uint64, error) {
	gid := googleID
	u := f.add(model.User{FirstName: firstName, LastName: lastName, Email: email, GoogleID: &gid})
	return u.ID, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByGoogleID(_ context.Context, googleID string) (model.User, error) {
	for _, u := range f.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUserStore) LinkGoogleID(_ context.Context, userID uint64, googleID string) error {
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	gid := googleID
	u.GoogleID = &gid
	f.users[userID] = u
	return nil
}

type fakeRoleStore struct {
	roles       map[uint64]model.Role
	memberships map[uint64][]uint64 // user id -> role ids
}

func newFakeRoleStore() *fakeRoleStore {
	return &fakeRoleStore{
		roles: map[uint64]model.Role{
			model.RoleIDOwner:      {ID: model.RoleIDOwner, Name: model.RoleOwner},
			model.RoleIDInfluencer: {ID: model.RoleIDInfluencer, Name: model.RoleInfluencer},
			model.RoleIDAdmin:      {ID: model.RoleIDAdmin, Name: model.RoleAdmin},
		},
		memberships: map[uint64][]uint64{},
	}
}

func (f *fakeRoleStore) GetByID(_ context.Context, id uint64) (model.Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return model.Role{}, repository.ErrNotFound
	}
	return r, nil
}

func (f *fakeRoleStore) RolesOf(_ context.Context, userID uint64) ([]model.Role, error) {
	ids := append([]uint64(nil), f.memberships[userID]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]model.Role, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.roles[id])
	}
	return out, nil
}

func (f *fakeRoleStore) Assign(_ context.Context, userID, roleID uint64) error {
	for _, id := range f.memberships[userID] {
		if id == roleID {
			return repository.ErrRoleAlreadyAssigned
		}
	}
	f.memberships[userID] = append(f.memberships[userID], roleID)
	return nil
}

type fakeSessionStore struct {
	sessions map[uint64]model.Session
	nextID   uint64
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[uint64]model.Session{}, nextID: 1}
}

func (f *fakeSessionStore) Create(_ context.Context, userID uint64, tokenHash, ip, userAgent, device string, expiresAt time.Time) (uint64, error) {
	id := f.nextID
	f.nextID++
	f.sessions[id] = model.Session{
		ID:               id,
		UserID:           userID,
		RefreshTokenHash: tokenHash,
		IP:               ip,
		UserAgent:        userAgent,
		Device:           device,
		ExpiresAt:        expiresAt,
		CreatedAt:        time.Now().UTC(),
	}
	return id, nil
}

func (f *fakeSessionStore) FindByHash(_ context.Context, userID uint64, tokenHash string) (model.Session, error) {
	for _, s := range f.sessions {
		if s.UserID == userID && s.RefreshTokenHash == tokenHash {
			return s, nil
		}
	}
	return model.Session{}, repository.ErrNotFound
}

func (f *fakeSessionStore) Revoke(_ context.Context, sessionID, userID uint64) error {
	s, ok := f.sessions[sessionID]
	if !ok || s.UserID != userID {
		return repository.ErrNotFound
	}
	if s.RevokedAt != nil {
		return repository.ErrAlreadyRevoked
	}
	now := time.Now().UTC()
	s.RevokedAt = &now
	f.sessions[sessionID] = s
	return nil
}

func (f *fakeSessionStore) RevokeAll(_ context.Context, userID uint64) (int64, error) {
	now := time.Now().UTC()
	var n int64
	for id, s := range f.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &now
			f.sessions[id] = s
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionStore) ListActive(_ context.Context, userID uint64) ([]model.Session, error) {
	now := time.Now().UTC()
	var out []model.Session
	for _, s := range f.sessions {
		if s.UserID == userID && s.Active(now) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

type fakeProfileStore struct {
	ensured map[uint64]string // user id -> role name
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{ensured: map[uint64]string{}}
}

func (f *fakeProfileStore) Ensure(_ context.Context, userID uint64, roleName string) error {
	f.ensured[userID] = roleName
	return nil
}

// auditRecorder collects emitted audit events for assertions.
type auditRecorder struct{ events []queue.AuditEvent }

func (a *auditRecorder) record(ev queue.AuditEvent) { a.events = append(a.events, ev) }

func (a *auditRecorder) actions() []string {
	out := make([]string, 0, len(a.events))
	for _, ev := range a.events {
		out = append(out, ev.Action)
	}
	return out
}
