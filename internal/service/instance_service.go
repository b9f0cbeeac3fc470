package service

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"academydb/internal/core"
)

var (
	ErrUnsupportedDriver = errors.New("unsupported instance type")
	ErrStudentNotFound   = errors.New("student not found")
)

// InstanceService provisions and assigns database instances.
type InstanceService struct {
	instRepo core.InstanceRepository
	userRepo core.UserRepository
	crypto   *EncryptionService
	drivers  []string
}

func NewInstanceService(instRepo core.InstanceRepository, userRepo core.UserRepository, crypto *EncryptionService, drivers []string) *InstanceService {
	return &InstanceService{
		instRepo: instRepo,
		userRepo: userRepo,
		crypto:   crypto,
		drivers:  drivers,
	}
}

type CreateInstanceInput struct {
	Name        string `json:"name"`
	Driver      string `json:"type"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Database    string `json:"database"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Description string `json:"description"`
}

func (s *InstanceService) Create(ownerID string, in CreateInstanceInput) (*core.DatabaseInstance, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Driver) == "" {
		return nil, ErrFieldsRequired
	}
	if !s.driverSupported(in.Driver) {
		return nil, ErrUnsupportedDriver
	}

	enc, err := s.crypto.Encrypt(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inst := &core.DatabaseInstance{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Driver:      in.Driver,
		Host:        in.Host,
		Port:        in.Port,
		Database:    in.Database,
		Username:    in.Username,
		PasswordEnc: enc,
		Description: in.Description,
		OwnerID:     ownerID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.instRepo.Create(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *InstanceService) List() ([]core.DatabaseInstance, error) {
	return s.instRepo.GetAll()
}

func (s *InstanceService) ListAssigned(studentID string) ([]core.DatabaseInstance, error) {
	return s.instRepo.GetAssigned(studentID)
}

func (s *InstanceService) Delete(id string) error {
	inst, err := s.instRepo.GetByID(id)
	if err != nil {
		return err
	}
	if inst == nil {
		return ErrInstanceNotFound
	}
	return s.instRepo.Delete(id)
}

// Assign links a student to an instance. Both sides must exist and the
// target user must actually be a student.
func (s *InstanceService) Assign(studentID, instanceID string) error {
	student, err := s.userRepo.GetByID(studentID)
	if err != nil {
		return err
	}
	if student == nil || student.RoleID.Elevated() {
		return ErrStudentNotFound
	}

	inst, err := s.instRepo.GetByID(instanceID)
	if err != nil {
		return err
	}
	if inst == nil {
		return ErrInstanceNotFound
	}

	return s.instRepo.Assign(studentID, instanceID)
}

func (s *InstanceService) Unassign(studentID, instanceID string) error {
	return s.instRepo.Unassign(studentID, instanceID)
}

func (s *InstanceService) driverSupported(driver string) bool {
	for _, d := range s.drivers {
		if strings.EqualFold(strings.TrimSpace(d), driver) {
			return true
		}
	}
	return false
}
