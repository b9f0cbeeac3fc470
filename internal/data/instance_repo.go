package data

import (
	"database/sql"
	"strings"
	"time"

	"academydb/internal/core"
)

type InstanceRepo struct {
	db *sql.DB
}

func NewInstanceRepo(db *sql.DB) *InstanceRepo {
	return &InstanceRepo{db: db}
}

const instanceColumns = `id, name, driver, host, port, db_name, username, password_enc, description, owner_id, is_active, created_at, updated_at`

func (r *InstanceRepo) Create(inst *core.DatabaseInstance) error {
	_, err := r.db.Exec(`INSERT INTO instances (`+instanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.ID, inst.Name, inst.Driver, inst.Host, inst.Port, inst.Database,
		inst.Username, inst.PasswordEnc, inst.Description, inst.OwnerID,
		inst.IsActive, inst.CreatedAt, inst.UpdatedAt)
	return err
}

func (r *InstanceRepo) GetAll() ([]core.DatabaseInstance, error) {
	rows, err := r.db.Query(`SELECT ` + instanceColumns + ` FROM instances ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInstances(rows)
}

func (r *InstanceRepo) GetByID(id string) (*core.DatabaseInstance, error) {
	row := r.db.QueryRow(`SELECT `+instanceColumns+` FROM instances WHERE id = ?`, id)
	inst, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

func (r *InstanceRepo) Update(inst *core.DatabaseInstance) error {
	_, err := r.db.Exec(`UPDATE instances SET name=?, driver=?, host=?, port=?, db_name=?, username=?, password_enc=?, description=?, is_active=?, updated_at=? WHERE id=?`,
		inst.Name, inst.Driver, inst.Host, inst.Port, inst.Database, inst.Username,
		inst.PasswordEnc, inst.Description, inst.IsActive, time.Now().UTC(), inst.ID)
	return err
}

func (r *InstanceRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM instances WHERE id=?`, id)
	return err
}

func (r *InstanceRepo) Assign(studentID, instanceID string) error {
	_, err := r.db.Exec(`INSERT OR IGNORE INTO instance_assignments (student_id, instance_id, created_at) VALUES (?, ?, ?)`,
		studentID, instanceID, time.Now().UTC())
	return err
}

func (r *InstanceRepo) Unassign(studentID, instanceID string) error {
	_, err := r.db.Exec(`DELETE FROM instance_assignments WHERE student_id=? AND instance_id=?`,
		studentID, instanceID)
	return err
}

func (r *InstanceRepo) IsAssigned(studentID, instanceID string) (bool, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM instance_assignments WHERE student_id=? AND instance_id=?`,
		studentID, instanceID).Scan(&n)
	return n > 0, err
}

func (r *InstanceRepo) GetAssigned(studentID string) ([]core.DatabaseInstance, error) {
	rows, err := r.db.Query(`SELECT `+prefixed(instanceColumns, "i.")+`
		FROM instances i
		JOIN instance_assignments a ON a.instance_id = i.id
		WHERE a.student_id = ?
		ORDER BY i.created_at`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInstances(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstance(row rowScanner) (*core.DatabaseInstance, error) {
	var inst core.DatabaseInstance
	var isActive int
	var desc sql.NullString
	err := row.Scan(&inst.ID, &inst.Name, &inst.Driver, &inst.Host, &inst.Port,
		&inst.Database, &inst.Username, &inst.PasswordEnc, &desc, &inst.OwnerID,
		&isActive, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inst.IsActive = isActive == 1
	if desc.Valid {
		inst.Description = desc.String
	}
	return &inst, nil
}

func scanInstances(rows *sql.Rows) ([]core.DatabaseInstance, error) {
	var instances []core.DatabaseInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, *inst)
	}
	return instances, rows.Err()
}

func prefixed(columns, prefix string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
