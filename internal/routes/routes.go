package routes

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/cache"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/config"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/handlers"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/middleware"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/models"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/response"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Cfg     *config.Config
	Auth    *handlers.AuthHandler
	Users   *handlers.UserHandler
	Notifs  *handlers.NotificationHandler
	WS      *handlers.WSHandler
	Protect fiber.Handler
	Cache   *cache.Cache
}

// Register mounts every route under the configured API version prefix.
func Register(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return response.Succeed(c, fiber.Map{"status": "ok"}, "Service healthy")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group(d.Cfg.App.APIVersion)

	authGroup := api.Group("/auth")
	authGroup.Post("/login", d.Auth.Login)
	authGroup.Post("/refresh-token", d.Auth.RefreshToken)
	authGroup.Post("/logout", d.Protect, d.Auth.Logout)
	authGroup.Get("/me", d.Protect, d.Auth.Me)

	userGroup := api.Group("/users")
	userGroup.Post("/register", d.Users.Register)
	userGroup.Get("/",
		d.Protect,
		middleware.RequireRoles(models.RoleAdmin),
		middleware.CacheResponses(d.Cache, "users", d.Cfg.CacheTTL),
		d.Users.List)
	userGroup.Patch("/:id/verify", d.Protect, middleware.RequireRoles(models.RoleAdmin), d.Users.Verify)
	userGroup.Patch("/:id/block", d.Protect, middleware.RequireRoles(models.RoleAdmin), d.Users.Block)
	userGroup.Patch("/:id/unblock", d.Protect, middleware.RequireRoles(models.RoleAdmin), d.Users.Unblock)

	notifGroup := api.Group("/notifications", d.Protect)
	notifGroup.Post("/",
		middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty),
		d.Notifs.Create)
	notifGroup.Get("/",
		middleware.CacheResponses(d.Cache, "notification", d.Cfg.CacheTTL),
		d.Notifs.List)
	notifGroup.Patch("/:id/mark-as-read", d.Notifs.MarkRead)
	notifGroup.Patch("/read-all", d.Notifs.MarkAllRead)

	app.Get("/ws", d.WS.Upgrade, websocket.New(d.WS.Serve))
}
