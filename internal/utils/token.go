package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification failure kinds. Handlers map these to distinct 401
// messages; everything that is not one of the named kinds collapses
// into ErrTokenInvalid so signature problems stay indistinguishable
// from other tampering.
var (
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token not active yet")
	ErrTokenInvalid     = errors.New("token is invalid")
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived, self-contained and never persisted;
// their validity is determined purely by signature and expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived signed token used to obtain new
// access tokens. The Raw string goes back to the client in an HttpOnly
// cookie; the database only ever sees its SHA-256 hash as part of a
// session row.
type RefreshToken struct {
	Raw string    // raw signed token returned to the client
	Exp time.Time // UTC expiration time
}

// Claims is the verified content of either token kind.
type Claims struct {
	UserID    uint64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewAccessToken builds and signs an HS256 JWT for a user with a TTL in
// minutes. The JWT carries the subject (sub), expiration (exp) and
// issued-at (iat) claims. Access tokens are signed with a secret
// dedicated to their kind; refresh tokens use a separate one.
func NewAccessToken(secret string, userID uint64, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	signed, err := signToken(secret, userID, now, exp)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs an HS256 JWT with a TTL in days.
// The refresh secret must differ from the access secret so a leaked
// key cannot forge both kinds. A jti claim makes every refresh token
// unique even when two logins for the same user land in the same
// second, so each login always maps to its own session row.
func NewRefreshToken(secret string, userID uint64, ttlDays int) (RefreshToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
		"jti": uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Raw: signed, Exp: exp}, nil
}

func signToken(secret string, userID uint64, iat, exp time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": iat.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// VerifyToken checks the signature and time claims of a token against
// the secret for its kind and returns the decoded claims. Inputs that
// are not exactly three dot-separated segments are rejected before any
// signature work is attempted.
func VerifyToken(token, secret string) (Claims, error) {
	if strings.Count(token, ".") != 2 {
		return Claims{}, ErrTokenMalformed
	}
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return Claims{}, ErrTokenNotYetValid
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrTokenMalformed
		default:
			return Claims{}, ErrTokenInvalid
		}
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}
	var c Claims
	// JWT numeric values decode as float64; tolerate string subjects the
	// way older token libraries emit them.
	switch sub := mc["sub"].(type) {
	case float64:
		c.UserID = uint64(sub)
	case string:
		id, perr := strconv.ParseUint(sub, 10, 64)
		if perr != nil {
			return Claims{}, ErrTokenInvalid
		}
		c.UserID = id
	default:
		return Claims{}, ErrTokenInvalid
	}
	if c.UserID == 0 {
		return Claims{}, ErrTokenInvalid
	}
	if iat, ok := mc["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := mc["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	return c, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a
// hex string. Hashing is deterministic so the same token always maps to
// the same session row, including after a server restart. Storing only
// the hash keeps stolen database rows from refreshing sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
