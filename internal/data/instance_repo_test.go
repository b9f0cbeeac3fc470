package data

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academydb/internal/core"
)

func newTestInstance(name string) *core.DatabaseInstance {
	now := time.Now().UTC().Truncate(time.Second)
	return &core.DatabaseInstance{
		ID:          uuid.NewString(),
		Name:        name,
		Driver:      "mysql",
		Host:        "localhost",
		Port:        3306,
		Database:    "practice",
		Username:    "student",
		PasswordEnc: "ZW5jcnlwdGVk",
		OwnerID:     "admin-1",
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestInstanceRepoCreateAndGet(t *testing.T) {
	repo := NewInstanceRepo(testDB(t))
	inst := newTestInstance("practice-mysql")
	require.NoError(t, repo.Create(inst))

	got, err := repo.GetByID(inst.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "practice-mysql", got.Name)
	assert.Equal(t, "mysql", got.Driver)
	assert.True(t, got.IsActive)
	assert.Equal(t, "ZW5jcnlwdGVk", got.PasswordEnc)
}

func TestInstanceRepoGetMissingReturnsNil(t *testing.T) {
	repo := NewInstanceRepo(testDB(t))
	got, err := repo.GetByID("no-such-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInstanceRepoUpdate(t *testing.T) {
	repo := NewInstanceRepo(testDB(t))
	inst := newTestInstance("practice-mysql")
	require.NoError(t, repo.Create(inst))

	inst.IsActive = false
	inst.Description = "down for maintenance"
	require.NoError(t, repo.Update(inst))

	got, err := repo.GetByID(inst.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, "down for maintenance", got.Description)
}

func TestInstanceRepoDelete(t *testing.T) {
	repo := NewInstanceRepo(testDB(t))
	inst := newTestInstance("practice-mysql")
	require.NoError(t, repo.Create(inst))
	require.NoError(t, repo.Delete(inst.ID))

	got, err := repo.GetByID(inst.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInstanceRepoAssignment(t *testing.T) {
	repo := NewInstanceRepo(testDB(t))
	inst := newTestInstance("practice-mysql")
	other := newTestInstance("practice-pg")
	require.NoError(t, repo.Create(inst))
	require.NoError(t, repo.Create(other))

	assigned, err := repo.IsAssigned("student-1", inst.ID)
	require.NoError(t, err)
	assert.False(t, assigned)

	require.NoError(t, repo.Assign("student-1", inst.ID))
	// Re-assigning is a no-op, not an error
	require.NoError(t, repo.Assign("student-1", inst.ID))

	assigned, err = repo.IsAssigned("student-1", inst.ID)
	require.NoError(t, err)
	assert.True(t, assigned)

	list, err := repo.GetAssigned("student-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, inst.ID, list[0].ID)

	require.NoError(t, repo.Unassign("student-1", inst.ID))
	assigned, err = repo.IsAssigned("student-1", inst.ID)
	require.NoError(t, err)
	assert.False(t, assigned)

	list, err = repo.GetAssigned("student-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInstanceRepoGetAll(t *testing.T) {
	repo := NewInstanceRepo(testDB(t))
	require.NoError(t, repo.Create(newTestInstance("a")))
	require.NoError(t, repo.Create(newTestInstance("b")))

	list, err := repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
