package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	applog "github.com/iliyamo/invoicing-portal/internal/log"
	"github.com/iliyamo/invoicing-portal/internal/tenant"
)

// ResolveTenant scopes the request to one entity.  It must run after
// SessionAuth.  Handlers read the entity with TenantFrom.
func ResolveTenant(r tenant.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			e, err := r.Resolve(ctx, IdentityFrom(c), c.Request().Header.Get(tenant.SelectorHeader))
			if err != nil {
				return err
			}
			c.Set(tenantKey, e)
			c.SetRequest(c.Request().WithContext(applog.WithFields(ctx, logrus.Fields{"entity_id": e.ID})))
			return next(c)
		}
	}
}
