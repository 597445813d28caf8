package middleware // middleware provides shared request processing for handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mariamm-maher/graduation-project-BE/internal/auth"
	"github.com/mariamm-maher/graduation-project-BE/internal/repository"
	"github.com/mariamm-maher/graduation-project-BE/internal/utils"
)

// Context keys set by JWTAuth for downstream handlers.
const (
	CtxUser   = "user"    // model.User
	CtxUserID = "user_id" // uint64
	CtxRoles  = "roles"   // []string role names
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and attaches the resolved user identity to the request context.
// Validation is stateless except for one user-existence lookup: the
// session table is deliberately not consulted, so a revoked session
// only takes effect at the next refresh. Tokens are rejected before any
// signature work when they are not three dot-separated segments.
func JWTAuth(secret string, users auth.UserStore, roles auth.RoleStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "access token is required"})
			}
			// Strip surrounding whitespace and quotes defensively; some
			// clients paste tokens with the quoting still attached.
			raw := strings.Trim(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")), `"'`)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "access token is required"})
			}
			if strings.Count(raw, ".") != 2 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token format"})
			}

			claims, err := utils.VerifyToken(raw, secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": tokenErrorMessage(err)})
			}

			ctx := c.Request().Context()
			u, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
			}
			names, err := roleNames(c, roles, u.ID)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load roles failed"})
			}

			c.Set(CtxUser, u)
			c.Set(CtxUserID, u.ID)
			c.Set(CtxRoles, names)
			return next(c)
		}
	}
}

func roleNames(c echo.Context, roles auth.RoleStore, userID uint64) ([]string, error) {
	rs, err := roles.RolesOf(c.Request().Context(), userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rs))
	for _, r := range rs {
		names = append(names, r.Name)
	}
	return names, nil
}

// tokenErrorMessage maps token verification failure kinds to the
// client-facing 401 messages.
func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, utils.ErrTokenExpired):
		return "access token expired, please log in again"
	case errors.Is(err, utils.ErrTokenMalformed):
		return "invalid token format"
	case errors.Is(err, utils.ErrTokenNotYetValid):
		return "token not active yet"
	default:
		return "invalid access token"
	}
}
