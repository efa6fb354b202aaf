package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/apperr"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/auth"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/models"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/response"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/token"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"

	// Locals keys set by Protect.
	LocalUserID = "userId"
	LocalRole   = "role"
)

// SetAuthCookies writes the token pair as httpOnly cookies.
func SetAuthCookies(c *fiber.Ctx, pair token.Pair, accessTTL, refreshTTL time.Duration, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     AccessCookie,
		Value:    pair.AccessToken,
		Expires:  time.Now().Add(accessTTL),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookie,
		Value:    pair.RefreshToken,
		Expires:  time.Now().Add(refreshTTL),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})
}

// ClearAuthCookies expires both auth cookies.
func ClearAuthCookies(c *fiber.Ctx) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Path:     "/",
		})
	}
}

// Protect authenticates the request from the access cookie. When the access
// token is expired but a valid refresh cookie is present, the pair is rotated
// in place and fresh cookies are set, so an active session never sees a 401.
func Protect(tokens *token.Service, authSvc *auth.Service, accessTTL, refreshTTL time.Duration, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		access := c.Cookies(AccessCookie)
		if access == "" {
			return response.Fail(c, apperr.Unauthorized("Not authenticated"))
		}

		claims, err := tokens.VerifyAccess(access)
		if err == nil {
			c.Locals(LocalUserID, claims.UserID)
			c.Locals(LocalRole, claims.Role)
			return c.Next()
		}
		if !errors.Is(err, token.ErrExpired) {
			return response.Fail(c, apperr.Unauthorized("Invalid token"))
		}

		refresh := c.Cookies(RefreshCookie)
		if refresh == "" {
			return response.Fail(c, apperr.Unauthorized("Session expired"))
		}
		user, pair, rErr := authSvc.Refresh(c.Context(), refresh)
		if rErr != nil {
			ClearAuthCookies(c)
			return response.Fail(c, rErr)
		}

		SetAuthCookies(c, pair, accessTTL, refreshTTL, secure)
		c.Locals(LocalUserID, user.ID.Hex())
		c.Locals(LocalRole, user.Role)
		return c.Next()
	}
}

// RequireRoles allows the request through only when the authenticated role is
// one of the given roles. Must run after Protect.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocalRole).(models.Role)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return response.Fail(c, apperr.Forbidden("You do not have permission to perform this action"))
	}
}

// UserID extracts the authenticated user's ObjectID from locals.
func UserID(c *fiber.Ctx) (primitive.ObjectID, error) {
	hexID, _ := c.Locals(LocalUserID).(string)
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return primitive.NilObjectID, apperr.Unauthorized("Not authenticated")
	}
	return id, nil
}
