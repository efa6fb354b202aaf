package auth

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/apperr"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/metrics"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/models"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/token"
)

// UserStore is the slice of the user repository the auth flows need.
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	IncrementTokenVersion(ctx context.Context, id primitive.ObjectID) error
	RecordFailedLogin(ctx context.Context, id primitive.ObjectID) error
	ResetLoginAttempts(ctx context.Context, id primitive.ObjectID) error
}

// Service owns credential checks and the token lifecycle.
type Service struct {
	users       UserStore
	tokens      *token.Service
	maxAttempts int
	log         *zap.SugaredLogger
}

func NewService(users UserStore, tokens *token.Service, maxAttempts int, log *zap.SugaredLogger) *Service {
	return &Service{users: users, tokens: tokens, maxAttempts: maxAttempts, log: log}
}

// Login checks credentials and account state, then issues a token pair.
// Failed password checks count toward the lockout threshold; a successful
// login resets the counter.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, token.Pair, error) {
	if email == "" || password == "" {
		return nil, token.Pair{}, apperr.Validation("Email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			metrics.LoginFailures.WithLabelValues("unknown_email").Inc()
			return nil, token.Pair{}, apperr.Unauthorized("Invalid credentials")
		}
		return nil, token.Pair{}, err
	}

	if user.LoginAttempts.Count >= s.maxAttempts {
		metrics.LoginFailures.WithLabelValues("locked").Inc()
		return nil, token.Pair{}, apperr.Forbidden("Account locked due to too many failed login attempts")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if recErr := s.users.RecordFailedLogin(ctx, user.ID); recErr != nil {
			s.log.Errorw("failed login bookkeeping", "userId", user.ID.Hex(), "err", recErr)
		}
		metrics.LoginFailures.WithLabelValues("bad_password").Inc()
		return nil, token.Pair{}, apperr.Unauthorized("Invalid credentials")
	}

	if user.IsBlocked {
		metrics.LoginFailures.WithLabelValues("blocked").Inc()
		return nil, token.Pair{}, apperr.Forbidden("Your account has been blocked. Please contact the administrator")
	}
	if !user.IsVerified {
		metrics.LoginFailures.WithLabelValues("unverified").Inc()
		return nil, token.Pair{}, apperr.Forbidden("Your account is pending verification")
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, token.Pair{}, apperr.Internal("Could not issue tokens").Wrap(err)
	}

	if err := s.users.ResetLoginAttempts(ctx, user.ID); err != nil {
		s.log.Errorw("login attempt reset failed", "userId", user.ID.Hex(), "err", err)
	}
	return user, pair, nil
}

// Refresh validates a refresh token and rotates the pair. The embedded
// version must match the user's current tokenVersion; a mismatch means the
// token was revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.User, token.Pair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, token.Pair{}, apperr.Unauthorized("Invalid or expired refresh token")
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, token.Pair{}, apperr.Unauthorized("Invalid or expired refresh token")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, token.Pair{}, apperr.Unauthorized("Invalid or expired refresh token")
	}
	if claims.Version != user.TokenVersion {
		return nil, token.Pair{}, apperr.Unauthorized("Refresh token has been revoked")
	}
	if user.IsBlocked {
		return nil, token.Pair{}, apperr.Forbidden("Your account has been blocked. Please contact the administrator")
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, token.Pair{}, apperr.Internal("Could not issue tokens").Wrap(err)
	}
	return user, pair, nil
}

// RevokeAll bumps the user's tokenVersion, invalidating every outstanding
// refresh token at once. Used by logout and by admin block.
func (s *Service) RevokeAll(ctx context.Context, userID primitive.ObjectID) error {
	return s.users.IncrementTokenVersion(ctx, userID)
}

// HashPassword returns a bcrypt hash for storage at registration time.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Internal("Could not hash password").Wrap(err)
	}
	return string(hash), nil
}
