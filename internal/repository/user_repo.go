package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/apperr"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/models"
)

const usersCollection = "users"

type UserRepository struct {
	mongo *Mongo
	col   *mongo.Collection
}

func NewUserRepository(m *Mongo) *UserRepository {
	return &UserRepository{mongo: m, col: m.DB.Collection(usersCollection)}
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	var user models.User
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, wrapErr(err, "User not found")
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	var user models.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, wrapErr(err, "User not found")
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("User already exists").Wrap(err)
	}
	return wrapErr(err, "")
}

// IncrementTokenVersion atomically bumps the revocation counter and clears
// the device token; every outstanding refresh token dies with this update.
func (r *UserRepository) IncrementTokenVersion(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"tokenVersion": 1},
			"$set": bson.M{"deviceToken": nil, "updatedAt": time.Now()},
		})
	if err != nil {
		return wrapErr(err, "")
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}

// RecordFailedLogin bumps the attempt counter in one atomic update.
func (r *UserRepository) RecordFailedLogin(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"loginAttempts.count": 1},
			"$set": bson.M{"loginAttempts.lastAttempt": time.Now()},
		})
	return wrapErr(err, "")
}

// ResetLoginAttempts clears the failure counter and stamps the login.
func (r *UserRepository) ResetLoginAttempts(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"loginAttempts.count":       0,
			"loginAttempts.lastAttempt": nil,
			"lastLogin":                 time.Now(),
		}})
	return wrapErr(err, "")
}

func (r *UserRepository) SetVerified(ctx context.Context, id primitive.ObjectID, verified bool) error {
	return r.setFlag(ctx, id, "isVerified", verified)
}

func (r *UserRepository) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) error {
	return r.setFlag(ctx, id, "isBlocked", blocked)
}

func (r *UserRepository) setFlag(ctx context.Context, id primitive.ObjectID, field string, value bool) error {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{field: value, "updatedAt": time.Now()}})
	if err != nil {
		return wrapErr(err, "")
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}

// FindUserIDsMatching resolves a target-group filter into user IDs. The
// criteria combine by union: any user matching at least one group is
// included. Only verified, unblocked users are targeted.
func (r *UserRepository) FindUserIDsMatching(ctx context.Context, groups models.TargetGroups) ([]primitive.ObjectID, error) {
	if groups.Empty() {
		return nil, nil
	}

	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	var or []bson.M
	if len(groups.Roles) > 0 {
		or = append(or, bson.M{"role": bson.M{"$in": groups.Roles}})
	}
	if len(groups.Departments) > 0 {
		or = append(or, bson.M{"department": bson.M{"$in": groups.Departments}})
	}
	if len(groups.Courses) > 0 {
		or = append(or, bson.M{"associations.courses": bson.M{"$in": groups.Courses}})
	}

	filter := bson.M{
		"$or":        or,
		"isVerified": true,
		"isBlocked":  false,
	}

	cursor, err := r.col.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, wrapErr(err, "")
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrapErr(err, "")
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// ListFilter narrows the paginated user listing.
type ListFilter struct {
	Role       models.Role
	Department *primitive.ObjectID
}

func (r *UserRepository) List(ctx context.Context, filter ListFilter, page, limit int) ([]models.User, int64, error) {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	q := bson.M{}
	if filter.Role != "" {
		q["role"] = filter.Role
	}
	if filter.Department != nil {
		q["department"] = *filter.Department
	}

	total, err := r.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, wrapErr(err, "")
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"createdAt": -1}).
		SetProjection(bson.M{"password": 0})

	cursor, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, wrapErr(err, "")
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, wrapErr(err, "")
	}
	return users, total, nil
}
