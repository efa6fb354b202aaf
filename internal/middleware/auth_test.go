package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/apperr"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/auth"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/models"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/token"
)

type stubUserStore struct {
	user *models.User
}

func (s *stubUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, apperr.NotFound("User not found")
}

func (s *stubUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, apperr.NotFound("User not found")
}

func (s *stubUserStore) IncrementTokenVersion(_ context.Context, id primitive.ObjectID) error {
	if s.user != nil && s.user.ID == id {
		s.user.TokenVersion++
		return nil
	}
	return apperr.NotFound("User not found")
}

func (s *stubUserStore) RecordFailedLogin(context.Context, primitive.ObjectID) error { return nil }
func (s *stubUserStore) ResetLoginAttempts(context.Context, primitive.ObjectID) error {
	return nil
}

func protectedApp(tokens *token.Service, authSvc *auth.Service) *fiber.App {
	app := fiber.New()
	app.Get("/private",
		Protect(tokens, authSvc, time.Minute, time.Hour, false),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"userId": c.Locals(LocalUserID)})
		})
	return app
}

func withCookie(req *http.Request, name, value string) {
	req.AddCookie(&http.Cookie{Name: name, Value: value})
}

func TestProtectAllowsValidAccessToken(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleStudent, IsVerified: true}
	tokens := token.NewService("a-secret", "r-secret", time.Minute, time.Hour)
	authSvc := auth.NewService(&stubUserStore{user: user}, tokens, 5, zap.NewNop().Sugar())
	app := protectedApp(tokens, authSvc)

	pair, err := tokens.IssuePair(user)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/private", nil)
	withCookie(req, AccessCookie, pair.AccessToken)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestProtectRejectsMissingCookie(t *testing.T) {
	tokens := token.NewService("a-secret", "r-secret", time.Minute, time.Hour)
	authSvc := auth.NewService(&stubUserStore{}, tokens, 5, zap.NewNop().Sugar())
	app := protectedApp(tokens, authSvc)

	resp, err := app.Test(httptest.NewRequest("GET", "/private", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestProtectSilentRefresh(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleFaculty, IsVerified: true}
	// Negative access TTL: every issued access token is already expired.
	expiredTokens := token.NewService("a-secret", "r-secret", -time.Minute, time.Hour)
	liveTokens := token.NewService("a-secret", "r-secret", time.Minute, time.Hour)
	authSvc := auth.NewService(&stubUserStore{user: user}, liveTokens, 5, zap.NewNop().Sugar())
	app := protectedApp(liveTokens, authSvc)

	pair, err := expiredTokens.IssuePair(user)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/private", nil)
	withCookie(req, AccessCookie, pair.AccessToken)
	withCookie(req, RefreshCookie, pair.RefreshToken)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 via silent refresh", resp.StatusCode)
	}

	var gotAccess bool
	for _, c := range resp.Cookies() {
		if c.Name == AccessCookie && c.Value != "" {
			gotAccess = true
		}
	}
	if !gotAccess {
		t.Fatal("silent refresh must set a fresh access cookie")
	}
}

func TestProtectRejectsRevokedRefresh(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleStudent, IsVerified: true}
	expiredTokens := token.NewService("a-secret", "r-secret", -time.Minute, time.Hour)
	liveTokens := token.NewService("a-secret", "r-secret", time.Minute, time.Hour)
	store := &stubUserStore{user: user}
	authSvc := auth.NewService(store, liveTokens, 5, zap.NewNop().Sugar())
	app := protectedApp(liveTokens, authSvc)

	pair, err := expiredTokens.IssuePair(user)
	if err != nil {
		t.Fatal(err)
	}

	// Logout elsewhere bumps the version; the refresh cookie is now stale.
	if err := authSvc.RevokeAll(context.Background(), user.ID); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/private", nil)
	withCookie(req, AccessCookie, pair.AccessToken)
	withCookie(req, RefreshCookie, pair.RefreshToken)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 after revocation", resp.StatusCode)
	}
}

func TestRequireRoles(t *testing.T) {
	app := fiber.New()
	app.Get("/admin",
		func(c *fiber.Ctx) error {
			c.Locals(LocalRole, models.RoleStudent)
			return c.Next()
		},
		RequireRoles(models.RoleAdmin),
		func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}
