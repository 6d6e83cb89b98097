package middleware // middleware provides shared request processing for handlers

import (
	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/invoicing-portal/internal/apperr"
)

// RequireRole returns a middleware function that enforces that the
// authenticated account has one of the specified roles.  It assumes
// SessionAuth has stored the role in the context under "role".
func RequireRole(roles ...string) echo.MiddlewareFunc {
	// Build a set of allowed roles for constant‑time lookups.
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return apperr.ErrForbiddenRole
			}
			return next(c)
		}
	}
}
