package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/rva/egopass/internal/handler"
	"github.com/rva/egopass/internal/middleware"
	"github.com/rva/egopass/internal/model"
)

// Register wires the full HTTP surface. Unauthenticated routes are the
// health check and the auth endpoints under /api/v1/auth; everything
// else lives under /api/v1 behind JWT auth. Admin-only routes
// additionally require the ADMIN role claim.
func Register(e *echo.Echo, jwtSecret string, a *handler.AuthHandler, p *handler.PassHandler, pay *handler.PaymentHandler, u *handler.UserHandler) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Session management. Logout accepts a refresh token in the body
	// and therefore does not need the JWT middleware.
	auth := e.Group("/api/v1/auth")
	auth.POST("/register", a.Register)
	auth.POST("/login", a.Login)
	auth.POST("/refresh", a.Refresh)
	auth.POST("/logout", a.Logout)

	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuth(jwtSecret))

	api.GET("/me", a.Me)

	// Pass workflow. The callback is invoked by the payment gateway
	// with the client's session, matching the redirect flow.
	api.POST("/passes/initiate", p.Initiate)
	api.POST("/passes/payment/callback", p.Callback)
	api.GET("/passes", p.List)
	api.GET("/passes/:id", p.Get)
	api.GET("/passes/:id/download", p.Download)
	api.POST("/passes/:id/validate", p.Validate, middleware.RequireRole(model.RoleAdmin))

	api.GET("/payments/:id", pay.Get)

	// Admin user management.
	admin := api.Group("/users", middleware.RequireRole(model.RoleAdmin))
	admin.GET("", u.List)
	admin.GET("/:id", u.Get)
	admin.PUT("/:id", u.Update)
	admin.DELETE("/:id", u.Delete)
}
