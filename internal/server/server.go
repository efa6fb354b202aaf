package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/auth"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/cache"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/config"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/handlers"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/hub"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/mail"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/middleware"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/notification"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/repository"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/response"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/routes"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/token"
)

type AppServer struct {
	app      *fiber.App
	registry *hub.Registry
}

func (s *AppServer) Listen(addr string) error {
	return s.app.Listen(addr)
}

// New wires every component and returns the server plus a close function for
// graceful shutdown.
func New(ctx context.Context, cfg *config.Config, mongo *repository.Mongo, log *zap.SugaredLogger) (*AppServer, func(ctx context.Context) error) {
	users := repository.NewUserRepository(mongo)
	notifs := repository.NewNotificationRepository(mongo)
	academic := repository.NewAcademicRepository(mongo)

	tokens := token.NewService(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	authSvc := auth.NewService(users, tokens, cfg.JWT.LoginAttemptsAllowed, log)

	registry := hub.NewRegistry(log)
	registry.StartHeartbeat(ctx, cfg.Heartbeat)

	notifSvc := notification.NewService(notifs, users, registry, log)

	store := cache.New(cfg.CacheTTL, cfg.CacheSweep)
	mailer := mail.NewNotifier(mail.NewMailer(cfg.SMTP, log))

	app := fiber.New(fiber.Config{
		AppName: "uniconnect",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(response.ErrorEnvelope{
					Success:    false,
					Message:    fe.Message,
					StatusCode: fe.Code,
				})
			}
			return response.Fail(c, err)
		},
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.ClientOrigin,
		AllowCredentials: true,
	}))

	protect := middleware.Protect(tokens, authSvc, cfg.AccessTTL, cfg.RefreshTTL, cfg.JWT.SecureCookies)

	routes.Register(app, routes.Deps{
		Cfg:     cfg,
		Auth:    handlers.NewAuthHandler(authSvc, users, cfg, log),
		Users:   handlers.NewUserHandler(users, academic, authSvc, mailer, store, log),
		Notifs:  handlers.NewNotificationHandler(notifSvc, store, log),
		WS:      handlers.NewWSHandler(registry, tokens, notifSvc, cfg.WS, cfg.WriteDeadline, log),
		Protect: protect,
		Cache:   store,
	})

	srv := &AppServer{app: app, registry: registry}

	closeFn := func(ctx context.Context) error {
		registry.Shutdown()
		store.Flush()

		ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return app.ShutdownWithContext(ctx2)
	}
	return srv, closeFn
}
