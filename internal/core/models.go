package core

import (
	"time"
)

type User struct {
	ID                 string     `json:"id"`
	UserName           string     `json:"userName"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	RoleID             Role       `json:"roleId"`
	RefreshToken       *string    `json:"-"`
	RefreshTokenExpire *time.Time `json:"-"`
	CreatedAt          time.Time  `json:"createAt"`
	UpdatedAt          time.Time  `json:"updateAt"`
}

// DatabaseInstance is a connection target an admin provisions for students.
// The stored password is AES-GCM encrypted and never appears in JSON.
type DatabaseInstance struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Driver      string    `json:"type"`
	Host        string    `json:"host"`
	Port        int       `json:"port"`
	Database    string    `json:"database"`
	Username    string    `json:"username"`
	PasswordEnc string    `json:"-"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"ownerId"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

const (
	QueryStatusPending  = "pending"
	QueryStatusExecuted = "executed"
	QueryStatusFailed   = "failed"
)

type QueryRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	InstanceID string    `json:"instanceId"`
	SQLText    string    `json:"sqlQuery"`
	Status     string    `json:"status"`
	Result     string    `json:"-"` // serialized QueryResult, empty until executed
	Error      string    `json:"error,omitempty"`
	RowCount   int       `json:"rowCount"`
	DurationMs int64     `json:"executionTime"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// QueryResult is the tabular outcome returned to the browser terminal.
type QueryResult struct {
	Columns       []string         `json:"columns"`
	Rows          []map[string]any `json:"rows"`
	RowCount      int              `json:"rowCount"`
	ExecutionTime int64            `json:"executionTime"`
}
