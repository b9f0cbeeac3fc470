package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academydb/internal/core"
	"academydb/internal/logger"
)

func TestMain(m *testing.M) {
	logger.InitDiscard()
	os.Exit(m.Run())
}

type fakeInstanceRepo struct {
	instances   map[string]*core.DatabaseInstance
	assignments map[string]bool // studentID + "|" + instanceID
}

func newFakeInstanceRepo() *fakeInstanceRepo {
	return &fakeInstanceRepo{
		instances:   make(map[string]*core.DatabaseInstance),
		assignments: make(map[string]bool),
	}
}

func (r *fakeInstanceRepo) Create(inst *core.DatabaseInstance) error {
	r.instances[inst.ID] = inst
	return nil
}

func (r *fakeInstanceRepo) GetAll() ([]core.DatabaseInstance, error) {
	var out []core.DatabaseInstance
	for _, inst := range r.instances {
		out = append(out, *inst)
	}
	return out, nil
}

func (r *fakeInstanceRepo) GetByID(id string) (*core.DatabaseInstance, error) {
	inst, ok := r.instances[id]
	if !ok {
		return nil, nil
	}
	return inst, nil
}

func (r *fakeInstanceRepo) Update(inst *core.DatabaseInstance) error { return nil }

func (r *fakeInstanceRepo) Delete(id string) error {
	delete(r.instances, id)
	return nil
}

func (r *fakeInstanceRepo) Assign(studentID, instanceID string) error {
	r.assignments[studentID+"|"+instanceID] = true
	return nil
}

func (r *fakeInstanceRepo) Unassign(studentID, instanceID string) error {
	delete(r.assignments, studentID+"|"+instanceID)
	return nil
}

func (r *fakeInstanceRepo) IsAssigned(studentID, instanceID string) (bool, error) {
	return r.assignments[studentID+"|"+instanceID], nil
}

func (r *fakeInstanceRepo) GetAssigned(studentID string) ([]core.DatabaseInstance, error) {
	var out []core.DatabaseInstance
	for id, inst := range r.instances {
		if r.assignments[studentID+"|"+id] {
			out = append(out, *inst)
		}
	}
	return out, nil
}

type fakeQueryRepo struct {
	records map[string]*core.QueryRecord
}

func newFakeQueryRepo() *fakeQueryRepo {
	return &fakeQueryRepo{records: make(map[string]*core.QueryRecord)}
}

func (r *fakeQueryRepo) Create(q *core.QueryRecord) error {
	cp := *q
	r.records[q.ID] = &cp
	return nil
}

func (r *fakeQueryRepo) GetByID(id string) (*core.QueryRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeQueryRepo) GetAll() ([]core.QueryRecord, error) {
	var out []core.QueryRecord
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out, nil
}

func (r *fakeQueryRepo) GetByUser(userID string) ([]core.QueryRecord, error) {
	var out []core.QueryRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakeQueryRepo) History(userID string, filter core.HistoryFilter) ([]core.QueryRecord, error) {
	return r.GetByUser(userID)
}

func (r *fakeQueryRepo) Update(q *core.QueryRecord) error {
	r.records[q.ID] = q
	return nil
}

func (r *fakeQueryRepo) Delete(id string) error {
	delete(r.records, id)
	return nil
}

// failingBackend always errors, to exercise the failed-record path.
type failingBackend struct{}

func (failingBackend) Execute(context.Context, *core.DatabaseInstance, string) (*core.QueryResult, error) {
	return nil, errors.New("syntax error near FORM")
}

func student() *core.User {
	return &core.User{ID: "student-1", UserName: "juan", Email: "juan@test.com", RoleID: core.RoleStudent}
}

func admin() *core.User {
	return &core.User{ID: "admin-1", UserName: "ana", Email: "ana@test.com", RoleID: core.RoleAdmin}
}

func seedInstance(r *fakeInstanceRepo) *core.DatabaseInstance {
	inst := &core.DatabaseInstance{
		ID:        "inst-1",
		Name:      "practice",
		Driver:    "mysql",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	r.instances[inst.ID] = inst
	return inst
}

func TestExecuteRequiresAssignmentForStudents(t *testing.T) {
	instRepo := newFakeInstanceRepo()
	queryRepo := newFakeQueryRepo()
	seedInstance(instRepo)
	svc := NewQueryService(instRepo, queryRepo, NewMockExecutor())

	_, _, err := svc.Execute(context.Background(), student(), "inst-1", "SELECT 1")
	assert.ErrorIs(t, err, ErrNotAssigned)
	assert.Empty(t, queryRepo.records, "unauthorized attempts are not recorded")

	require.NoError(t, instRepo.Assign("student-1", "inst-1"))

	result, record, err := svc.Execute(context.Background(), student(), "inst-1", "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, 4, result.RowCount)
	assert.Equal(t, core.QueryStatusExecuted, record.Status)
}

func TestExecuteElevatedSkipsAssignmentCheck(t *testing.T) {
	instRepo := newFakeInstanceRepo()
	queryRepo := newFakeQueryRepo()
	seedInstance(instRepo)
	svc := NewQueryService(instRepo, queryRepo, NewMockExecutor())

	_, record, err := svc.Execute(context.Background(), admin(), "inst-1", "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, core.QueryStatusExecuted, record.Status)
}

func TestExecuteUnknownInstance(t *testing.T) {
	svc := NewQueryService(newFakeInstanceRepo(), newFakeQueryRepo(), NewMockExecutor())

	_, _, err := svc.Execute(context.Background(), admin(), "missing", "SELECT 1")
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestExecuteFailureIsRecorded(t *testing.T) {
	instRepo := newFakeInstanceRepo()
	queryRepo := newFakeQueryRepo()
	seedInstance(instRepo)
	svc := NewQueryService(instRepo, queryRepo, failingBackend{})

	_, record, err := svc.Execute(context.Background(), admin(), "inst-1", "SELECT * FORM t")
	require.Error(t, err)
	require.NotNil(t, record)
	assert.Equal(t, core.QueryStatusFailed, record.Status)
	assert.Contains(t, record.Error, "syntax error")

	stored, err := queryRepo.GetByID(record.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, core.QueryStatusFailed, stored.Status)
}

func TestSaveCreatesPendingRecord(t *testing.T) {
	instRepo := newFakeInstanceRepo()
	queryRepo := newFakeQueryRepo()
	seedInstance(instRepo)
	require.NoError(t, instRepo.Assign("student-1", "inst-1"))
	svc := NewQueryService(instRepo, queryRepo, NewMockExecutor())

	record, err := svc.Save(student(), "inst-1", "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, core.QueryStatusPending, record.Status)
	assert.Empty(t, record.Result)
}

func TestGetEnforcesOwnership(t *testing.T) {
	instRepo := newFakeInstanceRepo()
	queryRepo := newFakeQueryRepo()
	seedInstance(instRepo)
	require.NoError(t, instRepo.Assign("student-1", "inst-1"))
	svc := NewQueryService(instRepo, queryRepo, NewMockExecutor())

	record, err := svc.Save(student(), "inst-1", "SELECT 1")
	require.NoError(t, err)

	// The owner and elevated roles can read it
	_, err = svc.Get(student(), record.ID)
	assert.NoError(t, err)
	_, err = svc.Get(admin(), record.ID)
	assert.NoError(t, err)

	// Another student cannot
	other := &core.User{ID: "student-2", RoleID: core.RoleStudent}
	_, err = svc.Get(other, record.ID)
	assert.ErrorIs(t, err, ErrQueryNotFound)
}
