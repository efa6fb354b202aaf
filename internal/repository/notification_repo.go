package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/models"
)

const notificationsCollection = "notifications"

type NotificationRepository struct {
	mongo *Mongo
	col   *mongo.Collection
}

func NewNotificationRepository(m *Mongo) *NotificationRepository {
	return &NotificationRepository{mongo: m, col: m.DB.Collection(notificationsCollection)}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *models.Notification) error {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = now.Add(30 * 24 * time.Hour)
	}
	if n.Status == "" {
		n.Status = models.StatusUnread
	}
	if n.Recipients == nil {
		n.Recipients = []models.Recipient{}
	}

	_, err := r.col.InsertOne(ctx, n)
	return wrapErr(err, "")
}

func (r *NotificationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	var n models.Notification
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if err != nil {
		return nil, wrapErr(err, "Notification not found")
	}
	return &n, nil
}

// ReplaceRecipients swaps the full recipient list after group expansion.
func (r *NotificationRepository) ReplaceRecipients(ctx context.Context, id primitive.ObjectID, recipients []models.Recipient) error {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"recipients": recipients, "updatedAt": time.Now()}})
	return wrapErr(err, "")
}

// markReadFilter matches the notification only while userID's recipient
// entry is still unread; a second call for the same pair matches nothing.
func markReadFilter(id, userID primitive.ObjectID) bson.M {
	return bson.M{
		"_id": id,
		"recipients": bson.M{"$elemMatch": bson.M{
			"user":   userID,
			"readAt": nil,
		}},
	}
}

// markReadUpdate stamps the positionally matched entry.
func markReadUpdate(at time.Time) bson.M {
	return bson.M{"$set": bson.M{
		"recipients.$.readAt": at,
		"status":              models.StatusRead,
		"updatedAt":           at,
	}}
}

// MarkRead stamps readAt on exactly the unread recipient entry for userID.
// The filter requires readAt to still be null, so a second call matches
// nothing and reports not-found: idempotent from the caller's perspective.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID primitive.ObjectID, at time.Time) error {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	res := r.col.FindOneAndUpdate(ctx,
		markReadFilter(id, userID),
		markReadUpdate(at),
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err := res.Err(); err != nil {
		return wrapErr(err, "Notification not found or already read")
	}
	return nil
}

// markAllReadFilter selects every notification holding an unread entry for
// userID; the array filter then updates only that user's unread entries, so
// other recipients' receipts are untouched.
func markAllReadFilter(userID primitive.ObjectID) bson.M {
	return bson.M{
		"recipients": bson.M{"$elemMatch": bson.M{
			"user":   userID,
			"readAt": nil,
		}},
	}
}

func markAllReadUpdate(at time.Time) bson.M {
	return bson.M{"$set": bson.M{"recipients.$[elem].readAt": at, "updatedAt": at}}
}

func markAllReadArrayFilters(userID primitive.ObjectID) options.ArrayFilters {
	return options.ArrayFilters{
		Filters: []interface{}{bson.M{"elem.user": userID, "elem.readAt": nil}},
	}
}

// MarkAllRead stamps readAt on every unread entry for userID across all
// notifications in one bulk update with an array filter, so it cannot
// interleave with concurrent per-notification reads.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID, at time.Time) (int64, error) {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	res, err := r.col.UpdateMany(ctx,
		markAllReadFilter(userID),
		markAllReadUpdate(at),
		options.Update().SetArrayFilters(markAllReadArrayFilters(userID)))
	if err != nil {
		return 0, wrapErr(err, "")
	}
	return res.ModifiedCount, nil
}

// ListForUser returns the notifications addressed to userID, newest first,
// optionally narrowed by status.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID primitive.ObjectID, status models.NotificationStatus) ([]models.Notification, error) {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"recipients.user": userID}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, wrapErr(err, "")
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, wrapErr(err, "")
	}
	return notifications, nil
}

// Archive flips a notification to its archived state.
func (r *NotificationRepository) Archive(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.StatusArchived, "updatedAt": time.Now()}})
	if err != nil {
		return wrapErr(err, "")
	}
	if res.MatchedCount == 0 {
		return wrapErr(mongo.ErrNoDocuments, "Notification not found")
	}
	return nil
}
