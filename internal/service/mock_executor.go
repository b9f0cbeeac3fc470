package service

import (
	"context"
	"strings"

	"academydb/internal/core"
)

// MockExecutor fabricates canned tabular results by keyword-matching the
// submitted SQL. It exists so the platform can be demonstrated without any
// reachable database; selected via EXECUTOR_MODE=mock.
type MockExecutor struct{}

func NewMockExecutor() *MockExecutor {
	return &MockExecutor{}
}

func (e *MockExecutor) Execute(_ context.Context, _ *core.DatabaseInstance, sqlText string) (*core.QueryResult, error) {
	query := strings.ToLower(sqlText)

	switch {
	case strings.Contains(query, "select"):
		rows := []map[string]any{
			{"id": 1, "nombre": "Juan Pérez", "email": "juan@test.com", "rol": "Student", "created_at": "2024-01-15"},
			{"id": 2, "nombre": "María García", "email": "maria@test.com", "rol": "Teacher", "created_at": "2024-01-16"},
			{"id": 3, "nombre": "Carlos López", "email": "carlos@test.com", "rol": "Student", "created_at": "2024-01-17"},
			{"id": 4, "nombre": "Ana Martínez", "email": "ana@test.com", "rol": "Admin", "created_at": "2024-01-18"},
		}
		return &core.QueryResult{
			Columns:       []string{"id", "nombre", "email", "rol", "created_at"},
			Rows:          rows,
			RowCount:      len(rows),
			ExecutionTime: 45,
		}, nil
	case strings.Contains(query, "insert"):
		return affectedRows(28), nil
	case strings.Contains(query, "update"):
		return affectedRows(32), nil
	case strings.Contains(query, "delete"):
		return affectedRows(25), nil
	default:
		return &core.QueryResult{
			Columns:       []string{"result"},
			Rows:          []map[string]any{{"result": "Query ejecutado correctamente"}},
			RowCount:      1,
			ExecutionTime: 15,
		}, nil
	}
}

func affectedRows(executionTime int64) *core.QueryResult {
	return &core.QueryResult{
		Columns:       []string{"affected_rows"},
		Rows:          []map[string]any{{"affected_rows": 1}},
		RowCount:      1,
		ExecutionTime: executionTime,
	}
}
