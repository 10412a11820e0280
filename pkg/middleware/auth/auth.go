package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/shophub/storefront/pkg/tokens"
)

const (
	AccessCookie = "accessToken"

	ContextUserID = "user_id"
	ContextRole   = "role"
)

// Identity is the verified caller handed to downstream handlers.
type Identity struct {
	UserID int64
	Role   string
}

func (i Identity) IsAdmin() bool { return i.Role == tokens.RoleAdmin }

type JWTAuth struct {
	JWTSecret []byte
}

func NewJWTAuth(secret []byte) *JWTAuth {
	return &JWTAuth{JWTSecret: secret}
}

type ValidatorFunc func(id Identity) error

func (m *JWTAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *JWTAuth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(id Identity) error {
		if !id.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *JWTAuth) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := tokenFromRequest(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil || claims == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		userID, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		if claims.Role != tokens.RoleUser && claims.Role != tokens.RoleAdmin {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		id := Identity{UserID: userID, Role: claims.Role}
		if validator != nil {
			if validationErr := validator(id); validationErr != nil {
				return validationErr
			}
		}

		setUserContext(c, id)
		return next(c)
	}
}

func tokenFromRequest(c echo.Context) string {
	if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func setUserContext(c echo.Context, id Identity) {
	c.Set(ContextUserID, id.UserID)
	c.Set(ContextRole, id.Role)
}

// IdentityFromContext returns the identity set by RequireAuth/RequireAdmin.
func IdentityFromContext(c echo.Context) (Identity, bool) {
	userID, ok := c.Get(ContextUserID).(int64)
	if !ok || userID <= 0 {
		return Identity{}, false
	}
	role, _ := c.Get(ContextRole).(string)
	return Identity{UserID: userID, Role: role}, true
}
