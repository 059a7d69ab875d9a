package domain

import (
	"errors"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when another identity already holds the email.
	ErrEmailTaken = errors.New("email already linked to another user")
)

// PlaceholderDomain is used for identities whose token has no verified email.
const PlaceholderDomain = "@firebase.local"

// User is the local profile of a Firebase identity; the Firebase UID is its key.
type User struct {
	FirebaseUID  string     `json:"firebaseUid" bson:"_id"`
	Email        string     `json:"email" bson:"email"`
	DisplayName  *string    `json:"displayName,omitempty" bson:"displayName,omitempty"`
	PhotoURL     *string    `json:"photoUrl,omitempty" bson:"photoUrl,omitempty"`
	Organization *string    `json:"organization,omitempty" bson:"organization,omitempty"`
	Role         string     `json:"role" bson:"role"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" bson:"lastLoginAt,omitempty"`
}

// SyncRequest carries identity data observed at sign-in. Nil fields keep the
// stored value.
type SyncRequest struct {
	FirebaseUID  string
	Email        string
	DisplayName  *string
	PhotoURL     *string
	Organization *string
}

// UpdateRequest is a partial profile update; nil fields are left untouched.
type UpdateRequest struct {
	DisplayName  *string
	PhotoURL     *string
	Organization *string
}
