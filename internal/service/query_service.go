package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"academydb/internal/core"
	"academydb/internal/logger"
)

var (
	ErrInstanceNotFound = errors.New("instance not found")
	ErrQueryNotFound    = errors.New("query not found")
	ErrNotAssigned      = errors.New("instance not assigned to student")
)

// QueryService coordinates access checks, execution via the configured
// backend, and history persistence.
type QueryService struct {
	instRepo  core.InstanceRepository
	queryRepo core.QueryRepository
	backend   core.QueryBackend
}

func NewQueryService(instRepo core.InstanceRepository, queryRepo core.QueryRepository, backend core.QueryBackend) *QueryService {
	return &QueryService{
		instRepo:  instRepo,
		queryRepo: queryRepo,
		backend:   backend,
	}
}

// Execute runs SQL for a user against an instance and records the outcome.
// Students may only target instances assigned to them; elevated roles may
// target any. A record is persisted whether execution succeeds or fails.
func (s *QueryService) Execute(ctx context.Context, user *core.User, instanceID, sqlText string) (*core.QueryResult, *core.QueryRecord, error) {
	inst, err := s.authorize(user, instanceID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	record := &core.QueryRecord{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		InstanceID: instanceID,
		SQLText:    sqlText,
		Status:     core.QueryStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	result, execErr := s.backend.Execute(ctx, inst, sqlText)
	if execErr != nil {
		record.Status = core.QueryStatusFailed
		record.Error = execErr.Error()
	} else {
		record.Status = core.QueryStatusExecuted
		record.RowCount = result.RowCount
		record.DurationMs = result.ExecutionTime
		if b, err := json.Marshal(result); err == nil {
			record.Result = string(b)
		}
	}

	if err := s.queryRepo.Create(record); err != nil {
		// History must not mask the execution outcome
		logger.Error.Printf("failed to persist query record for user %s: %v", user.ID, err)
	}

	if execErr != nil {
		return nil, record, execErr
	}
	return result, record, nil
}

// Save stores a query without executing it (status pending).
func (s *QueryService) Save(user *core.User, instanceID, sqlText string) (*core.QueryRecord, error) {
	if _, err := s.authorize(user, instanceID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &core.QueryRecord{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		InstanceID: instanceID,
		SQLText:    sqlText,
		Status:     core.QueryStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.queryRepo.Create(record); err != nil {
		return nil, err
	}
	return record, nil
}

// Get returns a record visible to the user: owners see their own, elevated
// roles see everything.
func (s *QueryService) Get(user *core.User, id string) (*core.QueryRecord, error) {
	record, err := s.queryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if record == nil || (record.UserID != user.ID && !user.RoleID.Elevated()) {
		return nil, ErrQueryNotFound
	}
	return record, nil
}

func (s *QueryService) ListAll() ([]core.QueryRecord, error) {
	return s.queryRepo.GetAll()
}

func (s *QueryService) ListOwn(user *core.User) ([]core.QueryRecord, error) {
	return s.queryRepo.GetByUser(user.ID)
}

func (s *QueryService) History(user *core.User, filter core.HistoryFilter) ([]core.QueryRecord, error) {
	return s.queryRepo.History(user.ID, filter)
}

func (s *QueryService) Delete(user *core.User, id string) error {
	record, err := s.Get(user, id)
	if err != nil {
		return err
	}
	return s.queryRepo.Delete(record.ID)
}

func (s *QueryService) authorize(user *core.User, instanceID string) (*core.DatabaseInstance, error) {
	inst, err := s.instRepo.GetByID(instanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, ErrInstanceNotFound
	}

	if !user.RoleID.Elevated() {
		assigned, err := s.instRepo.IsAssigned(user.ID, instanceID)
		if err != nil {
			return nil, err
		}
		if !assigned {
			return nil, ErrNotAssigned
		}
	}
	return inst, nil
}
