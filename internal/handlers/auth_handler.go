package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/apperr"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/auth"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/config"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/middleware"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/repository"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/response"
)

type AuthHandler struct {
	auth  *auth.Service
	users *repository.UserRepository
	cfg   *config.Config
	log   *zap.SugaredLogger
}

func NewAuthHandler(authSvc *auth.Service, users *repository.UserRepository, cfg *config.Config, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{auth: authSvc, users: users, cfg: cfg, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and sets the auth cookie pair.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}

	user, pair, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return response.Fail(c, err)
	}

	middleware.SetAuthCookies(c, pair, h.cfg.AccessTTL, h.cfg.RefreshTTL, h.cfg.JWT.SecureCookies)
	return response.Succeed(c, fiber.Map{"user": user.Public()}, "Login successful")
}

// Logout revokes every outstanding refresh token and clears the cookies.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	if err := h.auth.RevokeAll(c.Context(), userID); err != nil {
		return response.Fail(c, err)
	}
	middleware.ClearAuthCookies(c)
	return response.Succeed(c, nil, "Logged out successfully")
}

// RefreshToken rotates the pair from the refresh cookie. Exposed for clients
// that refresh proactively instead of relying on the silent path.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refresh := c.Cookies(middleware.RefreshCookie)
	if refresh == "" {
		return response.Fail(c, apperr.Unauthorized("Refresh token missing"))
	}

	user, pair, err := h.auth.Refresh(c.Context(), refresh)
	if err != nil {
		middleware.ClearAuthCookies(c)
		return response.Fail(c, err)
	}

	middleware.SetAuthCookies(c, pair, h.cfg.AccessTTL, h.cfg.RefreshTTL, h.cfg.JWT.SecureCookies)
	return response.Succeed(c, fiber.Map{"user": user.Public()}, "Token refreshed")
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	user, err := h.users.FindByID(c.Context(), userID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Succeed(c, user, "User profile")
}
