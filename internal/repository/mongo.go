package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/apperr"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/config"
)

// Mongo owns the client and the collection handles the repositories share.
type Mongo struct {
	Client       *mongo.Client
	DB           *mongo.Database
	queryTimeout time.Duration
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetMaxPoolSize(10).
		SetMinPoolSize(2))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	return &Mongo{
		Client:       client,
		DB:           client.Database(cfg.Mongo.Database),
		queryTimeout: cfg.QueryTimeout,
	}, nil
}

func (m *Mongo) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// withTimeout caps a persistence call at the configured query budget. A
// timed-out call reports apperr Timeout; partial writes already committed
// are not rolled back.
func (m *Mongo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.queryTimeout)
}

// wrapErr normalizes driver errors into the app taxonomy.
func wrapErr(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound(notFoundMsg)
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Timeout("Query timeout").Wrap(err)
	case mongo.IsDuplicateKeyError(err):
		return apperr.Conflict("Duplicate resource").Wrap(err)
	default:
		return apperr.Internal("Internal server error").Wrap(err)
	}
}

// EnsureIndexes creates the indexes the hot queries rely on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	users := m.DB.Collection(usersCollection)
	if _, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "phoneNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "department", Value: 1}}},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "isVerified", Value: 1}, {Key: "isBlocked", Value: 1}}},
	}); err != nil {
		return err
	}

	notifications := m.DB.Collection(notificationsCollection)
	if _, err := notifications.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipients.user", Value: 1}, {Key: "recipients.readAt", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}); err != nil {
		return err
	}
	return nil
}
