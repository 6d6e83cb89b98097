package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/invoicing-portal/internal/config"
	"github.com/iliyamo/invoicing-portal/internal/handler"    // handlers that implement each endpoint
	"github.com/iliyamo/invoicing-portal/internal/middleware" // session auth, role, tenant, cache and rate limit middleware
	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/tenant"
)

// Deps is everything the routes need.  Redis is optional; without it the
// rate limiter and the cache are pass-through.
type Deps struct {
	Store    handler.Pinger
	Gate     middleware.Authenticator
	Resolver tenant.Resolver

	Auth     *handler.AuthHandler
	Entities *handler.EntityHandler
	Buyers   *handler.BuyerHandler
	Invoices *handler.InvoiceHandler

	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
}

// New builds the Echo instance with error rendering, validation and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())

	RegisterRoutes(e, d.Store)
	RegisterAuth(e, d)
	RegisterAdmin(e, d)
	RegisterTenant(e, d)
	return e
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check backed by a store ping.
func RegisterRoutes(e *echo.Echo, store handler.Pinger) {
	e.GET("/healthz", handler.Health(store))
}

// RegisterAuth registers login, logout and the account endpoints.  Login is
// the only public write and the only rate limited route.
func RegisterAuth(e *echo.Echo, d Deps) {
	g := e.Group("/v1/auth")
	g.POST("/login", d.Auth.Login, middleware.NewTokenBucket(d.RateLimit, d.Redis))
	// Logout only needs the token, so it is not behind SessionAuth.
	g.POST("/logout", d.Auth.Logout)

	me := e.Group("/v1/me",
		middleware.SessionAuth(d.Gate),
		middleware.RequireRole(model.RoleAdmin, model.RoleClient),
	)
	me.GET("", d.Auth.Me)
	me.GET("/settings", d.Auth.GetSettings)
	me.PATCH("/settings", d.Auth.UpdateSettings)
}
