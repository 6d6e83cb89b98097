package middleware

// identity.go holds the context keys shared across middleware files and
// handlers.  SessionAuth stores the caller under identityKey and
// ResolveTenant stores the entity under tenantKey.

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/invoicing-portal/internal/auth"
	"github.com/iliyamo/invoicing-portal/internal/model"
)

const (
	identityKey = "identity"
	tenantKey   = "tenant"
)

// IdentityFrom returns the caller set by SessionAuth, or nil.
func IdentityFrom(c echo.Context) *auth.Identity {
	id, _ := c.Get(identityKey).(*auth.Identity)
	return id
}

// TenantFrom returns the entity set by ResolveTenant, or nil.
func TenantFrom(c echo.Context) *model.Entity {
	e, _ := c.Get(tenantKey).(*model.Entity)
	return e
}

// BearerToken returns the token of an "Authorization: Bearer" header, or "".
func BearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// userID returns the authenticated account id, or "guest" when the request
// is anonymous.
func userID(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v
	}
	return "guest"
}
