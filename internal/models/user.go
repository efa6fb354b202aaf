package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the access level a user holds.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleFaculty Role = "faculty"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return true
	}
	return false
}

// LoginAttempts tracks consecutive failed logins; the auth service locks the
// account once Count reaches the configured threshold.
type LoginAttempts struct {
	Count       int        `bson:"count" json:"count"`
	LastAttempt *time.Time `bson:"lastAttempt,omitempty" json:"lastAttempt,omitempty"`
	LockUntil   *time.Time `bson:"lockUntil,omitempty" json:"-"`
}

// Associations holds role-dependent references: for faculty the courses they
// teach, for students their single course/session/semester.
type Associations struct {
	Courses   []primitive.ObjectID `bson:"courses,omitempty" json:"courses,omitempty"`
	Sessions  []primitive.ObjectID `bson:"sessions,omitempty" json:"sessions,omitempty"`
	Semesters []primitive.ObjectID `bson:"semesters,omitempty" json:"semesters,omitempty"`
	Subjects  []primitive.ObjectID `bson:"subjects,omitempty" json:"subjects,omitempty"`
}

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName    string             `bson:"fullName" json:"fullName"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password" json:"-"`
	PhoneNumber string             `bson:"phoneNumber" json:"phoneNumber"`
	Role        Role               `bson:"role" json:"role"`
	ProfilePic  string             `bson:"profilePic,omitempty" json:"profilePic,omitempty"`
	Department  primitive.ObjectID `bson:"department" json:"department"`

	// Faculty-only
	FacultyID   string `bson:"facultyId,omitempty" json:"facultyId,omitempty"`
	Designation string `bson:"designation,omitempty" json:"designation,omitempty"`

	// Student-only
	RollNumber string `bson:"rollNumber,omitempty" json:"rollNumber,omitempty"`

	Associations Associations `bson:"associations,omitempty" json:"associations,omitempty"`

	IsVerified bool `bson:"isVerified" json:"isVerified"`
	IsBlocked  bool `bson:"isBlocked" json:"isBlocked"`

	// Monotonic revocation counter; bumping it invalidates every
	// outstanding refresh token for this user.
	TokenVersion int `bson:"tokenVersion" json:"-"`

	ResetPasswordToken  string     `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpire *time.Time `bson:"resetPasswordExpire,omitempty" json:"-"`

	LastLogin     *time.Time    `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	LoginAttempts LoginAttempts `bson:"loginAttempts" json:"-"`
	DeviceToken   string        `bson:"deviceToken,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PublicUser is the shape returned to clients after authentication.
type PublicUser struct {
	ID       primitive.ObjectID `json:"id"`
	FullName string             `json:"fullName"`
	Email    string             `json:"email"`
	Role     Role               `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role}
}
