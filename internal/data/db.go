package data

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// InitDB opens the SQLite metadata store at path and runs migrations.
// Tests pass ":memory:".
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

func runMigrations(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS roles (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		user_name TEXT NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role_id INTEGER NOT NULL,
		refresh_token TEXT,
		refresh_token_expire DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(role_id) REFERENCES roles(id)
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (LOWER(email));

	CREATE TABLE IF NOT EXISTS instances (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		driver TEXT NOT NULL,
		host TEXT NOT NULL,
		port INTEGER NOT NULL,
		db_name TEXT NOT NULL,
		username TEXT NOT NULL,
		password_enc TEXT NOT NULL,
		description TEXT,
		owner_id TEXT NOT NULL,
		is_active INTEGER DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(owner_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS instance_assignments (
		student_id TEXT NOT NULL,
		instance_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (student_id, instance_id),
		FOREIGN KEY (student_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (instance_id) REFERENCES instances(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS queries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		instance_id TEXT NOT NULL,
		sql_text TEXT NOT NULL,
		status TEXT NOT NULL,
		result TEXT,
		error_message TEXT,
		row_count INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(instance_id) REFERENCES instances(id)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}

	// Seed the closed role set. Idempotent.
	_, err := db.Exec(`INSERT OR IGNORE INTO roles (id, name) VALUES
		(1, 'Admin'), (2, 'Teacher'), (3, 'Student')`)
	return err
}
