package core

import (
	"context"
	"time"
)

// UserRepository defines storage operations for accounts
type UserRepository interface {
	Create(user *User) error
	GetByEmail(email string) (*User, error)
	GetByID(id string) (*User, error)
	GetAll() ([]User, error)
	Update(user *User) error
	Delete(id string) error
	CountUsers() (int, error)
	// UpdateRefreshToken overwrites the stored refresh token pair. Nil values
	// clear it (revocation).
	UpdateRefreshToken(userID string, token *string, expire *time.Time) error
}

// InstanceRepository defines storage operations for database instances and
// their student assignments
type InstanceRepository interface {
	Create(inst *DatabaseInstance) error
	GetAll() ([]DatabaseInstance, error)
	GetByID(id string) (*DatabaseInstance, error)
	Update(inst *DatabaseInstance) error
	Delete(id string) error
	Assign(studentID, instanceID string) error
	Unassign(studentID, instanceID string) error
	IsAssigned(studentID, instanceID string) (bool, error)
	GetAssigned(studentID string) ([]DatabaseInstance, error)
}

// QueryRepository defines storage operations for query history records
type QueryRepository interface {
	Create(q *QueryRecord) error
	GetByID(id string) (*QueryRecord, error)
	GetAll() ([]QueryRecord, error)
	GetByUser(userID string) ([]QueryRecord, error)
	History(userID string, filter HistoryFilter) ([]QueryRecord, error)
	Update(q *QueryRecord) error
	Delete(id string) error
}

// HistoryFilter narrows a history listing. Zero values mean "no filter".
type HistoryFilter struct {
	InstanceID string
	Status     string
	Limit      int
}

// QueryBackend executes SQL against an instance. The live backend dials the
// real database; the mock backend fabricates canned rows. Selected at startup
// via config, not at build time.
type QueryBackend interface {
	Execute(ctx context.Context, inst *DatabaseInstance, sqlText string) (*QueryResult, error)
}
