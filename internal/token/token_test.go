package token

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:           primitive.NewObjectID(),
		Role:         models.RoleStudent,
		TokenVersion: 3,
	}
}

func TestIssueAndVerifyPair(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	user := testUser()

	pair, err := svc.IssuePair(user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	access, err := svc.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if access.UserID != user.ID.Hex() || access.Role != models.RoleStudent {
		t.Fatalf("unexpected access claims: %+v", access)
	}

	refresh, err := svc.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if refresh.UserID != user.ID.Hex() || refresh.Version != 3 {
		t.Fatalf("unexpected refresh claims: %+v", refresh)
	}
}

func TestDistinctSecrets(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	pair, err := svc.IssuePair(testUser())
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := svc.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrInvalid) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}
	if _, err := svc.VerifyRefresh(pair.AccessToken); !errors.Is(err, ErrInvalid) {
		t.Fatalf("access token accepted as refresh token: %v", err)
	}
}

func TestExpiredAccessToken(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret", -time.Minute, 7*24*time.Hour)
	pair, err := svc.IssuePair(testUser())
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := svc.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}

func TestMalformedToken(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	if _, err := svc.VerifyAccess("not.a.token"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestTamperedSignature(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	other := NewService("different-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)

	pair, err := other.IssuePair(testUser())
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if _, err := svc.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrInvalid) {
		t.Fatalf("token signed with wrong secret verified: %v", err)
	}
}
