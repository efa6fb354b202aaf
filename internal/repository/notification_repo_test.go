package repository

import (
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/models"
)

// The read-receipt guarantees live in these query documents: the unread
// predicate makes MarkRead a no-op on a second call, and the array filter
// keeps MarkAllRead away from other users' entries. Pin their shapes.

func TestMarkReadFilterRequiresUnreadEntry(t *testing.T) {
	id, userID := primitive.NewObjectID(), primitive.NewObjectID()

	want := bson.M{
		"_id": id,
		"recipients": bson.M{"$elemMatch": bson.M{
			"user":   userID,
			"readAt": nil,
		}},
	}
	if got := markReadFilter(id, userID); !reflect.DeepEqual(got, want) {
		t.Fatalf("filter = %#v, want %#v", got, want)
	}
}

func TestMarkReadUpdateStampsPositionalEntry(t *testing.T) {
	at := time.Now()

	want := bson.M{"$set": bson.M{
		"recipients.$.readAt": at,
		"status":              models.StatusRead,
		"updatedAt":           at,
	}}
	if got := markReadUpdate(at); !reflect.DeepEqual(got, want) {
		t.Fatalf("update = %#v, want %#v", got, want)
	}
}

func TestMarkAllReadScopedToUser(t *testing.T) {
	userID := primitive.NewObjectID()
	at := time.Now()

	wantFilter := bson.M{
		"recipients": bson.M{"$elemMatch": bson.M{
			"user":   userID,
			"readAt": nil,
		}},
	}
	if got := markAllReadFilter(userID); !reflect.DeepEqual(got, wantFilter) {
		t.Fatalf("filter = %#v, want %#v", got, wantFilter)
	}

	wantUpdate := bson.M{"$set": bson.M{
		"recipients.$[elem].readAt": at,
		"updatedAt":                 at,
	}}
	if got := markAllReadUpdate(at); !reflect.DeepEqual(got, wantUpdate) {
		t.Fatalf("update = %#v, want %#v", got, wantUpdate)
	}

	// The array filter must name both the user and the unread predicate;
	// dropping either would stamp other recipients or re-stamp read entries.
	af := markAllReadArrayFilters(userID)
	if len(af.Filters) != 1 {
		t.Fatalf("array filters = %d, want 1", len(af.Filters))
	}
	elem, ok := af.Filters[0].(bson.M)
	if !ok {
		t.Fatalf("array filter has type %T, want bson.M", af.Filters[0])
	}
	if elem["elem.user"] != userID {
		t.Fatal("array filter must scope to the user's entries")
	}
	if v, present := elem["elem.readAt"]; !present || v != nil {
		t.Fatal("array filter must only touch unread entries")
	}
}
