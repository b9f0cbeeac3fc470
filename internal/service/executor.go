package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"academydb/internal/core"

	// Instance drivers (ODBC is registered in drivers_odbc.go; it needs cgo)
	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const queryTimeout = 30 * time.Second

// LiveExecutor runs SQL against the real database behind an instance.
type LiveExecutor struct {
	crypto *EncryptionService
}

func NewLiveExecutor(crypto *EncryptionService) *LiveExecutor {
	return &LiveExecutor{crypto: crypto}
}

func (e *LiveExecutor) Execute(ctx context.Context, inst *core.DatabaseInstance, sqlText string) (*core.QueryResult, error) {
	if !inst.IsActive {
		return nil, fmt.Errorf("instance is inactive")
	}

	password, err := e.crypto.Decrypt(inst.PasswordEnc)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt instance credentials: %w", err)
	}

	dsn, err := BuildDSN(inst, password)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(inst.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection (%s): %w", inst.Driver, err)
	}
	defer db.Close()

	ctxTimeout, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := db.PingContext(ctxTimeout); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	start := time.Now()
	rows, err := db.QueryContext(ctxTimeout, sqlText)
	if err != nil {
		return nil, fmt.Errorf("execution error: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	resultRows := []map[string]any{}

	for rows.Next() {
		// Generic row scanning
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		rowMap := make(map[string]any)
		for i, col := range columns {
			val := values[i]
			if b, ok := val.([]byte); ok {
				rowMap[col] = string(b)
			} else {
				rowMap[col] = val
			}
		}
		resultRows = append(resultRows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &core.QueryResult{
		Columns:       columns,
		Rows:          resultRows,
		RowCount:      len(resultRows),
		ExecutionTime: time.Since(start).Milliseconds(),
	}, nil
}

// BuildDSN renders the driver-specific connection string for an instance.
func BuildDSN(inst *core.DatabaseInstance, password string) (string, error) {
	switch inst.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", inst.Username, password, inst.Host, inst.Port, inst.Database), nil
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			inst.Host, inst.Port, inst.Username, password, inst.Database), nil
	case "mssql":
		return fmt.Sprintf("server=%s;port=%d;user id=%s;password=%s;database=%s",
			inst.Host, inst.Port, inst.Username, password, inst.Database), nil
	case "sqlite":
		// Database field holds the file path for embedded targets
		return inst.Database, nil
	case "odbc":
		return fmt.Sprintf("DSN=%s;UID=%s;PWD=%s", inst.Database, inst.Username, password), nil
	default:
		return "", fmt.Errorf("unsupported driver %q", inst.Driver)
	}
}
