package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	"github.com/iliyamo/invoicing-portal/internal/auth"
	applog "github.com/iliyamo/invoicing-portal/internal/log"
)

// Authenticator maps a bearer token to the caller.  *auth.Gate satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// SessionAuth returns an Echo middleware that admits a request only when
// its Bearer token maps to a live session.  The signature alone is not
// enough: a logged out or cascaded session is refused even though its
// token has not expired.  Handlers read the caller via IdentityFrom, or
// the plain values via c.Get("user_id") and c.Get("role").
func SessionAuth(gate Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := BearerToken(c)
			if raw == "" {
				return apperr.ErrNoToken
			}
			ctx := c.Request().Context()
			id, err := gate.Authenticate(ctx, raw)
			if err != nil {
				return err
			}

			c.Set(identityKey, id)
			c.Set("user_id", id.Account.ID)
			c.Set("role", id.Role())
			ctx = applog.WithFields(ctx, logrus.Fields{"account_id": id.Account.ID, "role": id.Role()})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
