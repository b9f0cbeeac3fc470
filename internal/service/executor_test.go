package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academydb/internal/core"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestBuildDSN(t *testing.T) {
	inst := &core.DatabaseInstance{
		Driver:   "mysql",
		Host:     "db.local",
		Port:     3306,
		Database: "school",
		Username: "alice",
	}

	tests := []struct {
		driver string
		want   string
	}{
		{"mysql", "alice:s3cret@tcp(db.local:3306)/school"},
		{"postgres", "host=db.local port=3306 user=alice password=s3cret dbname=school sslmode=disable"},
		{"mssql", "server=db.local;port=3306;user id=alice;password=s3cret;database=school"},
		{"sqlite", "school"},
		{"odbc", "DSN=school;UID=alice;PWD=s3cret"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			inst.Driver = tt.driver
			dsn, err := BuildDSN(inst, "s3cret")
			require.NoError(t, err)
			assert.Equal(t, tt.want, dsn)
		})
	}
}

func TestBuildDSNUnsupportedDriver(t *testing.T) {
	_, err := BuildDSN(&core.DatabaseInstance{Driver: "mongodb"}, "pw")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported"))
}

// The sqlite driver needs no server, so the live path can be exercised end
// to end against an in-memory database.
func TestLiveExecutorAgainstSQLite(t *testing.T) {
	crypto, err := NewEncryptionService(testKey)
	require.NoError(t, err)

	enc, err := crypto.Encrypt("")
	require.NoError(t, err)

	inst := &core.DatabaseInstance{
		ID:          "inst-1",
		Driver:      "sqlite",
		Database:    ":memory:",
		PasswordEnc: enc,
		IsActive:    true,
	}

	e := NewLiveExecutor(crypto)

	result, err := e.Execute(context.Background(), inst, "SELECT 1 AS one, 'two' AS two")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, result.Columns)
	require.Equal(t, 1, result.RowCount)
	assert.Equal(t, "two", result.Rows[0]["two"])
	assert.GreaterOrEqual(t, result.ExecutionTime, int64(0))
}

func TestLiveExecutorSQLErrorSurfaces(t *testing.T) {
	crypto, err := NewEncryptionService(testKey)
	require.NoError(t, err)

	enc, err := crypto.Encrypt("")
	require.NoError(t, err)

	inst := &core.DatabaseInstance{
		ID:          "inst-1",
		Driver:      "sqlite",
		Database:    ":memory:",
		PasswordEnc: enc,
		IsActive:    true,
	}

	e := NewLiveExecutor(crypto)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = e.Execute(ctx, inst, "SELECT * FROM does_not_exist")
	assert.Error(t, err)
}

func TestLiveExecutorRejectsInactiveInstance(t *testing.T) {
	crypto, err := NewEncryptionService(testKey)
	require.NoError(t, err)

	e := NewLiveExecutor(crypto)
	_, err = e.Execute(context.Background(), &core.DatabaseInstance{Driver: "sqlite", IsActive: false}, "SELECT 1")
	assert.Error(t, err)
}
