package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("admin request not found")
	ErrAlreadyProcessed = errors.New("request already processed")
	ErrDuplicatePending = errors.New("a pending request already exists for this email")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied:
		return true
	}
	return false
}

// Request is an application for the admin role, decided once by token.
type Request struct {
	ID            string     `json:"id" bson:"_id"`
	Token         string     `json:"-" bson:"token"`
	Username      string     `json:"username" bson:"username"`
	Email         string     `json:"email" bson:"email"`
	PasswordHash  string     `json:"-" bson:"passwordHash"`
	Justification string     `json:"justification" bson:"justification"`
	Status        Status     `json:"status" bson:"status"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
	ReviewedAt    *time.Time `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
}
