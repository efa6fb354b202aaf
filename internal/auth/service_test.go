package auth

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/apperr"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/models"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/token"
)

type fakeUserStore struct {
	byEmail  map[string]*models.User
	byID     map[primitive.ObjectID]*models.User
	failures int
	resets   int
	revoked  int
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	f := &fakeUserStore{
		byEmail: make(map[string]*models.User),
		byID:    make(map[primitive.ObjectID]*models.User),
	}
	for _, u := range users {
		f.byEmail[u.Email] = u
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("User not found")
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("User not found")
}

func (f *fakeUserStore) IncrementTokenVersion(_ context.Context, id primitive.ObjectID) error {
	u, ok := f.byID[id]
	if !ok {
		return apperr.NotFound("User not found")
	}
	u.TokenVersion++
	u.DeviceToken = ""
	f.revoked++
	return nil
}

func (f *fakeUserStore) RecordFailedLogin(_ context.Context, id primitive.ObjectID) error {
	if u, ok := f.byID[id]; ok {
		u.LoginAttempts.Count++
	}
	f.failures++
	return nil
}

func (f *fakeUserStore) ResetLoginAttempts(_ context.Context, id primitive.ObjectID) error {
	if u, ok := f.byID[id]; ok {
		u.LoginAttempts.Count = 0
	}
	f.resets++
	return nil
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(h)
}

func testUser(t *testing.T, password string) *models.User {
	return &models.User{
		ID:         primitive.NewObjectID(),
		FullName:   "Asha Nair",
		Email:      "asha@uni.edu",
		Password:   mustHash(t, password),
		Role:       models.RoleStudent,
		IsVerified: true,
	}
}

func newTestService(store UserStore) *Service {
	tokens := token.NewService("access-secret", "refresh-secret", time.Minute, time.Hour)
	return NewService(store, tokens, 5, zap.NewNop().Sugar())
}

func TestLoginSuccess(t *testing.T) {
	u := testUser(t, "pass1234")
	store := newFakeUserStore(u)
	svc := newTestService(store)

	got, pair, err := svc.Login(context.Background(), u.Email, "pass1234")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID {
		t.Fatal("wrong user returned")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected a signed token pair")
	}
	if store.resets != 1 {
		t.Fatalf("resets = %d, want 1", store.resets)
	}
}

func TestLoginWrongPasswordCountsFailure(t *testing.T) {
	u := testUser(t, "pass1234")
	store := newFakeUserStore(u)
	svc := newTestService(store)

	_, _, err := svc.Login(context.Background(), u.Email, "wrong")
	if !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if store.failures != 1 {
		t.Fatalf("failures = %d, want 1", store.failures)
	}
}

func TestLoginUnknownEmailIsOpaque(t *testing.T) {
	svc := newTestService(newFakeUserStore())

	_, _, err := svc.Login(context.Background(), "ghost@uni.edu", "whatever")
	if !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginLockedOut(t *testing.T) {
	u := testUser(t, "pass1234")
	u.LoginAttempts.Count = 5
	svc := newTestService(newFakeUserStore(u))

	_, _, err := svc.Login(context.Background(), u.Email, "pass1234")
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for locked account, got %v", err)
	}
}

func TestLoginBlockedAndUnverified(t *testing.T) {
	blocked := testUser(t, "pass1234")
	blocked.Email = "blocked@uni.edu"
	blocked.IsBlocked = true

	pending := testUser(t, "pass1234")
	pending.Email = "pending@uni.edu"
	pending.IsVerified = false

	svc := newTestService(newFakeUserStore(blocked, pending))

	for _, email := range []string{blocked.Email, pending.Email} {
		if _, _, err := svc.Login(context.Background(), email, "pass1234"); !apperr.IsKind(err, apperr.KindForbidden) {
			t.Fatalf("%s: expected forbidden, got %v", email, err)
		}
	}
}

func TestRefreshRotatesPair(t *testing.T) {
	u := testUser(t, "pass1234")
	store := newFakeUserStore(u)
	svc := newTestService(store)

	_, pair, err := svc.Login(context.Background(), u.Email, "pass1234")
	if err != nil {
		t.Fatal(err)
	}

	got, next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID {
		t.Fatal("refresh returned wrong user")
	}
	if next.AccessToken == "" || next.RefreshToken == "" {
		t.Fatal("expected a rotated pair")
	}
}

func TestRefreshRejectsRevokedVersion(t *testing.T) {
	u := testUser(t, "pass1234")
	store := newFakeUserStore(u)
	svc := newTestService(store)

	_, pair, err := svc.Login(context.Background(), u.Email, "pass1234")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.RevokeAll(context.Background(), u.ID); err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.Refresh(context.Background(), pair.RefreshToken); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized after revocation, got %v", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc := newTestService(newFakeUserStore())
	if _, _, err := svc.Refresh(context.Background(), "not-a-jwt"); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
