package data

import (
	"database/sql"
	"time"

	"academydb/internal/core"
)

type QueryRepo struct {
	db *sql.DB
}

func NewQueryRepo(db *sql.DB) *QueryRepo {
	return &QueryRepo{db: db}
}

const queryColumns = `id, user_id, instance_id, sql_text, status, result, error_message, row_count, duration_ms, created_at, updated_at`

func (r *QueryRepo) Create(q *core.QueryRecord) error {
	_, err := r.db.Exec(`INSERT INTO queries (`+queryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.UserID, q.InstanceID, q.SQLText, q.Status, q.Result, q.Error,
		q.RowCount, q.DurationMs, q.CreatedAt, q.UpdatedAt)
	return err
}

func (r *QueryRepo) GetByID(id string) (*core.QueryRecord, error) {
	row := r.db.QueryRow(`SELECT `+queryColumns+` FROM queries WHERE id = ?`, id)
	q, err := scanQuery(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *QueryRepo) GetAll() ([]core.QueryRecord, error) {
	rows, err := r.db.Query(`SELECT ` + queryColumns + ` FROM queries ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQueries(rows)
}

func (r *QueryRepo) GetByUser(userID string) ([]core.QueryRecord, error) {
	rows, err := r.db.Query(`SELECT `+queryColumns+` FROM queries WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQueries(rows)
}

// History lists a user's records newest first, optionally filtered by
// instance and status, capped at filter.Limit when positive.
func (r *QueryRepo) History(userID string, filter core.HistoryFilter) ([]core.QueryRecord, error) {
	query := `SELECT ` + queryColumns + ` FROM queries WHERE user_id = ?`
	args := []any{userID}

	if filter.InstanceID != "" {
		query += ` AND instance_id = ?`
		args = append(args, filter.InstanceID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQueries(rows)
}

func (r *QueryRepo) Update(q *core.QueryRecord) error {
	_, err := r.db.Exec(`UPDATE queries SET status=?, result=?, error_message=?, row_count=?, duration_ms=?, updated_at=? WHERE id=?`,
		q.Status, q.Result, q.Error, q.RowCount, q.DurationMs, time.Now().UTC(), q.ID)
	return err
}

func (r *QueryRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM queries WHERE id=?`, id)
	return err
}

func scanQuery(row rowScanner) (*core.QueryRecord, error) {
	var q core.QueryRecord
	var result, errMsg sql.NullString
	err := row.Scan(&q.ID, &q.UserID, &q.InstanceID, &q.SQLText, &q.Status,
		&result, &errMsg, &q.RowCount, &q.DurationMs, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if result.Valid {
		q.Result = result.String
	}
	if errMsg.Valid {
		q.Error = errMsg.String
	}
	return &q, nil
}

func scanQueries(rows *sql.Rows) ([]core.QueryRecord, error) {
	var records []core.QueryRecord
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *q)
	}
	return records, rows.Err()
}
