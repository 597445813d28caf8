package auth

import (
	"context"
	"errors"

	"github.com/mariamm-maher/graduation-project-BE/internal/model"
	"github.com/mariamm-maher/graduation-project-BE/internal/repository"
	"github.com/mariamm-maher/graduation-project-BE/internal/utils"
)

// ErrInvalidCredentials is returned for every local-credential failure:
// unknown email, OAuth-only account, or wrong password. Collapsing the
// cases into one error keeps the login response identical in shape and
// status, so the endpoint cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUnverifiedEmail rejects OAuth profiles whose email the provider
// reports unverified. Email-based account linking is only safe when the
// provider has verified ownership of the address.
var ErrUnverifiedEmail = errors.New("provider email not verified")

// VerifyLocalCredentials checks an email/password pair against the user
// store. bcrypt performs the constant-time comparison. The caller never
// learns which of the checks failed.
func VerifyLocalCredentials(ctx context.Context, users UserStore, email, password string) (model.User, error) {
	u, err := users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, err
	}
	if !u.HasPassword() {
		return model.User{}, ErrInvalidCredentials
	}
	if !utils.VerifyPassword(*u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// OAuthProfile is the provider identity assertion handed to
// ResolveOAuthIdentity after the code exchange.
type OAuthProfile struct {
	GoogleID      string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
}

// ResolveOAuthIdentity maps a provider profile onto a local account.
// Resolution order: provider id match, then email match (which links
// the provider id to the local account), else a new passwordless
// account. isNew is true only for the last case so the caller knows to
// route the client to role selection.
//
// Linking by email inherits the account whoever registered that address
// first; the verified-email precondition above is what makes that
// acceptable for Google-asserted addresses.
func ResolveOAuthIdentity(ctx context.Context, users UserStore, p OAuthProfile) (model.User, bool, error) {
	if p.GoogleID == "" || p.Email == "" {
		return model.User{}, false, errors.New("incomplete provider profile")
	}
	if !p.EmailVerified {
		return model.User{}, false, ErrUnverifiedEmail
	}

	u, err := users.GetByGoogleID(ctx, p.GoogleID)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, false, err
	}

	u, err = users.GetByEmail(ctx, p.Email)
	if err == nil {
		if err := users.LinkGoogleID(ctx, u.ID, p.GoogleID); err != nil {
			return model.User{}, false, err
		}
		gid := p.GoogleID
		u.GoogleID = &gid
		return u, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, false, err
	}

	id, err := users.CreateOAuth(ctx, p.FirstName, p.LastName, p.Email, p.GoogleID)
	if err != nil {
		return model.User{}, false, err
	}
	u, err = users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, false, err
	}
	return u, true, nil
}
