package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/invoicing-portal/internal/middleware"
	"github.com/iliyamo/invoicing-portal/internal/model"
)

// RegisterAdmin registers the operator endpoints under /v1/admin.  All
// routes require a live session and the admin role.  They are not tenant
// scoped: the entity is named in the path.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group(
		"/v1/admin",
		middleware.SessionAuth(d.Gate),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.POST("/entities", d.Entities.Create)
	g.GET("/entities", d.Entities.List)
	g.GET("/entities/:id", d.Entities.Get)
	g.PATCH("/entities/:id", d.Entities.Update)
	g.PATCH("/entities/:id/toggle-status", d.Entities.ToggleStatus)
	g.PATCH("/entities/:id/reset-password", d.Entities.ResetPassword)
}
