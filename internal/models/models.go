package models

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Transitions lists the statuses an administrator may move a request to.
func (s Status) Transitions() []Status {
	if s == StatusPending {
		return []Status{StatusApproved, StatusRejected}
	}
	return []Status{StatusPending}
}

type User struct {
	ID         string `json:"_id,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	QuotaLimit int    `json:"quotaLimit"`
	QuotaUsed  int    `json:"quotaUsed"`
}

func (u User) Remaining() int {
	return u.QuotaLimit - u.QuotaUsed
}

// RequestOwner is the populated user reference the admin listing carries.
type RequestOwner struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Request struct {
	ID          string        `json:"_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      Status        `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	User        *RequestOwner `json:"user,omitempty"`
}

type Quota struct {
	QuotaLimit int `json:"quotaLimit"`
	QuotaUsed  int `json:"quotaUsed"`
	Remaining  int `json:"remaining"`
}

type Report struct {
	UserID         string    `json:"userId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	QuotaLimit     int       `json:"quotaLimit"`
	QuotaUsed      int       `json:"quotaUsed"`
	Remaining      int       `json:"remaining"`
	TotalRequests  int       `json:"totalRequests"`
	RecentRequests []Request `json:"recentRequests"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RequestInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SessionEntry is one stored key of a browser session.
type SessionEntry struct {
	SessionID string    `gorm:"primaryKey;size:64"  json:"session_id"`
	Name      string    `gorm:"primaryKey;size:32"  json:"name"`
	Value     string    `gorm:"not null"            json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
