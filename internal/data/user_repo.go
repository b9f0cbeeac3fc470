package data

import (
	"database/sql"
	"time"

	"academydb/internal/core"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(u *core.User) error {
	_, err := r.db.Exec(`INSERT INTO users (id, user_name, email, password_hash, role_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.UserName, u.Email, u.PasswordHash, int(u.RoleID), u.CreatedAt, u.UpdatedAt)
	return err
}

// GetByEmail retrieves a user by email, compared case-insensitively.
// Returns (nil, nil) when no such user exists.
func (r *UserRepo) GetByEmail(email string) (*core.User, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, user_name, email, password_hash, role_id, refresh_token, refresh_token_expire, created_at, updated_at
		 FROM users WHERE LOWER(email) = LOWER(?)`, email))
}

func (r *UserRepo) GetByID(id string) (*core.User, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, user_name, email, password_hash, role_id, refresh_token, refresh_token_expire, created_at, updated_at
		 FROM users WHERE id = ?`, id))
}

func (r *UserRepo) scanOne(row *sql.Row) (*core.User, error) {
	var u core.User
	var roleID int
	var refresh sql.NullString
	var refreshExp sql.NullTime
	err := row.Scan(&u.ID, &u.UserName, &u.Email, &u.PasswordHash, &roleID,
		&refresh, &refreshExp, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.RoleID = core.Role(roleID)
	if refresh.Valid {
		u.RefreshToken = &refresh.String
	}
	if refreshExp.Valid {
		u.RefreshTokenExpire = &refreshExp.Time
	}
	return &u, nil
}

func (r *UserRepo) GetAll() ([]core.User, error) {
	rows, err := r.db.Query(`SELECT id, user_name, email, role_id, created_at, updated_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		var roleID int
		if err := rows.Scan(&u.ID, &u.UserName, &u.Email, &roleID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.RoleID = core.Role(roleID)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) Update(u *core.User) error {
	// Password hash only overwritten when set
	if u.PasswordHash != "" {
		_, err := r.db.Exec(`UPDATE users SET user_name=?, email=?, password_hash=?, role_id=?, updated_at=? WHERE id=?`,
			u.UserName, u.Email, u.PasswordHash, int(u.RoleID), time.Now().UTC(), u.ID)
		return err
	}
	_, err := r.db.Exec(`UPDATE users SET user_name=?, email=?, role_id=?, updated_at=? WHERE id=?`,
		u.UserName, u.Email, int(u.RoleID), time.Now().UTC(), u.ID)
	return err
}

func (r *UserRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM users WHERE id=?`, id)
	return err
}

func (r *UserRepo) CountUsers() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// UpdateRefreshToken overwrites the stored refresh token pair in a single
// statement. Concurrent callers race as last-writer-wins, which is the
// documented behavior for this column. Nil values clear the pair.
func (r *UserRepo) UpdateRefreshToken(userID string, token *string, expire *time.Time) error {
	var tok sql.NullString
	var exp sql.NullTime
	if token != nil {
		tok = sql.NullString{String: *token, Valid: true}
	}
	if expire != nil {
		exp = sql.NullTime{Time: *expire, Valid: true}
	}
	_, err := r.db.Exec(`UPDATE users SET refresh_token=?, refresh_token_expire=?, updated_at=? WHERE id=?`,
		tok, exp, time.Now().UTC(), userID)
	return err
}
