package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/invoicing-portal/internal/middleware"
	"github.com/iliyamo/invoicing-portal/internal/model"
)

// RegisterTenant registers the buyer and invoice endpoints.  Every route
// runs SessionAuth, the role check and ResolveTenant in that order, so a
// handler always sees a resolved entity.  Reads are cached per tenant and
// successful writes drop that tenant's cache.
func RegisterTenant(e *echo.Echo, d Deps) {
	g := e.Group(
		"/v1",
		middleware.SessionAuth(d.Gate),
		middleware.RequireRole(model.RoleAdmin, model.RoleClient),
		middleware.ResolveTenant(d.Resolver),
		middleware.BustTenantCache(d.Cache, d.Redis),
	)
	cached := middleware.NewRedisCache(d.Cache, d.Redis)

	g.POST("/buyers", d.Buyers.Create)
	g.GET("/buyers", d.Buyers.List, cached)
	g.PATCH("/buyers/:id", d.Buyers.Update)
	g.PATCH("/buyers/:id/toggle-status", d.Buyers.ToggleStatus)

	// Static segments win over :id in echo's router, so these do not
	// collide with /invoices/:id.
	g.GET("/invoices/buyers", d.Buyers.ListActive, cached)
	g.GET("/invoices/buyers/:id", d.Buyers.Get)
	// BodyLimit stops reading before the multipart parser buffers an
	// oversized upload.
	g.POST("/invoices/bulk-upload", d.Invoices.BulkUpload, echomw.BodyLimit(d.Invoices.UploadBodyLimit()))

	g.POST("/invoices", d.Invoices.Create)
	g.GET("/invoices", d.Invoices.List, cached)
	g.GET("/invoices/:id", d.Invoices.Get)
	g.PATCH("/invoices/:id", d.Invoices.Update)
	g.DELETE("/invoices/:id", d.Invoices.Delete)
	// Marking sent is an operator action.
	g.PATCH("/invoices/:id/sent", d.Invoices.MarkSent, middleware.RequireRole(model.RoleAdmin))
}
