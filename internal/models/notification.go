package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType is the category of a notification.
type NotificationType string

const (
	TypeNote       NotificationType = "NOTE"
	TypeAssignment NotificationType = "ASSIGNMENT"
	TypePYQ        NotificationType = "PYQ"
	TypeNotice     NotificationType = "NOTICE"
	TypeSystem     NotificationType = "SYSTEM"
)

func (t NotificationType) Valid() bool {
	switch t {
	case TypeNote, TypeAssignment, TypePYQ, TypeNotice, TypeSystem:
		return true
	}
	return false
}

// NotificationStatus is the coarse lifecycle marker on the record.
type NotificationStatus string

const (
	StatusUnread   NotificationStatus = "UNREAD"
	StatusRead     NotificationStatus = "READ"
	StatusArchived NotificationStatus = "ARCHIVED"
)

func (s NotificationStatus) Valid() bool {
	switch s {
	case StatusUnread, StatusRead, StatusArchived:
		return true
	}
	return false
}

// Recipient pairs a user with their read receipt. ReadAt transitions from
// nil to a timestamp at most once; a set ReadAt is never cleared.
type Recipient struct {
	User   primitive.ObjectID `bson:"user" json:"user"`
	ReadAt *time.Time         `bson:"readAt" json:"readAt"`
}

// TargetGroups describes a dynamic audience. Criteria combine by union: a
// user matching any of them is included exactly once at expansion time.
type TargetGroups struct {
	Roles       []Role               `bson:"roles,omitempty" json:"roles,omitempty"`
	Departments []primitive.ObjectID `bson:"departments,omitempty" json:"departments,omitempty"`
	Courses     []primitive.ObjectID `bson:"courses,omitempty" json:"courses,omitempty"`
}

// Empty reports whether no group criterion is set.
func (g TargetGroups) Empty() bool {
	return len(g.Roles) == 0 && len(g.Departments) == 0 && len(g.Courses) == 0
}

// Metadata carries references into the resource/assignment store.
type Metadata struct {
	ResourceID   *primitive.ObjectID `bson:"resourceId,omitempty" json:"resourceId,omitempty"`
	AssignmentID *primitive.ObjectID `bson:"assignmentId,omitempty" json:"assignmentId,omitempty"`
	SubjectID    *primitive.ObjectID `bson:"subjectId,omitempty" json:"subjectId,omitempty"`
}

type Notification struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Message      string             `bson:"message" json:"message"`
	Type         NotificationType   `bson:"type" json:"type"`
	Status       NotificationStatus `bson:"status" json:"status"`
	Sender       primitive.ObjectID `bson:"sender" json:"sender"`
	Recipients   []Recipient        `bson:"recipients" json:"recipients"`
	TargetGroups TargetGroups       `bson:"targetGroups" json:"targetGroups"`
	Metadata     Metadata           `bson:"metadata,omitempty" json:"metadata,omitempty"`
	ExpiresAt    time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
