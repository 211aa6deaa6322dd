package employees

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/khanghh/klms/internal/credential"
	"github.com/khanghh/klms/model"
	"gorm.io/gorm"
)

type CreateEmployeeOptions struct {
	EmpID      string
	Email      string
	FullName   string
	Department string
	Role       model.Role
	Password   string
}

// SessionTerminator ends every active session of an employee inside the given transaction.
type SessionTerminator interface {
	TerminateAllForEmployeeTx(ctx context.Context, tx *gorm.DB, employeeID string, reason model.LogoutReason) (int64, error)
}

type EmployeeService struct {
	employeeRepo EmployeeRepository
	sessions     SessionTerminator
}

func notFound(employee *model.Employee, err error) (*model.Employee, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEmployeeNotFound
	}
	return employee, err
}

func (s *EmployeeService) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	return notFound(s.employeeRepo.FindByID(ctx, id))
}

func (s *EmployeeService) GetByEmpID(ctx context.Context, empID string) (*model.Employee, error) {
	return notFound(s.employeeRepo.FindByEmpID(ctx, strings.TrimSpace(empID)))
}

func (s *EmployeeService) List(ctx context.Context) ([]*model.Employee, error) {
	return s.employeeRepo.Find(ctx)
}

func (s *EmployeeService) checkEmployeeExist(ctx context.Context, empID, email string) error {
	if empID != "" {
		existing, err := s.employeeRepo.FindByEmpID(ctx, empID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil {
			return ErrEmpIDTaken
		}
	}
	if email != "" {
		existing, err := s.employeeRepo.FindByEmail(ctx, email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil {
			return ErrEmailTaken
		}
	}
	return nil
}

// duplicateKeyError maps a mysql unique violation to the conflicting field.
func duplicateKeyError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		switch {
		case strings.Contains(mysqlErr.Message, "emp_id"):
			return ErrEmpIDTaken
		case strings.Contains(mysqlErr.Message, "email"):
			return ErrEmailTaken
		}
	}
	return err
}

func (s *EmployeeService) Create(ctx context.Context, opts CreateEmployeeOptions) (*model.Employee, error) {
	opts.EmpID = strings.TrimSpace(opts.EmpID)
	opts.Email = strings.ToLower(strings.TrimSpace(opts.Email))
	opts.FullName = strings.TrimSpace(opts.FullName)
	switch {
	case opts.EmpID == "":
		return nil, fmt.Errorf("%w: emp_id", ErrMissingField)
	case opts.Email == "":
		return nil, fmt.Errorf("%w: email", ErrMissingField)
	case opts.FullName == "":
		return nil, fmt.Errorf("%w: full_name", ErrMissingField)
	case opts.Password == "":
		return nil, fmt.Errorf("%w: password", ErrMissingField)
	}
	if _, err := mail.ParseAddress(opts.Email); err != nil {
		return nil, ErrInvalidEmail
	}
	if opts.Role == "" {
		opts.Role = model.RoleEmployee
	}
	if !opts.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := s.checkEmployeeExist(ctx, opts.EmpID, opts.Email); err != nil {
		return nil, err
	}

	passwordHash, err := credential.Hash(opts.Password)
	if err != nil {
		return nil, err
	}
	employee := model.Employee{
		EmpID:        opts.EmpID,
		Email:        opts.Email,
		FullName:     opts.FullName,
		Department:   strings.TrimSpace(opts.Department),
		Role:         opts.Role,
		IsActive:     true,
		PasswordHash: passwordHash,
	}
	if err := s.employeeRepo.Create(ctx, &employee); err != nil {
		return nil, duplicateKeyError(err)
	}
	return &employee, nil
}

// Update applies patch to the employee. actingEmployeeID is the admin performing the change,
// or empty for operator tooling. Deactivating through an update cascades like Deactivate.
func (s *EmployeeService) Update(ctx context.Context, id, actingEmployeeID string, patch Patch) (*model.Employee, error) {
	employee, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.empID != nil && strings.TrimSpace(*patch.empID) != employee.EmpID {
		return nil, ErrEmpIDImmutable
	}
	if patch.Len() == 0 {
		return nil, ErrNothingToUpdate
	}

	columns := make(map[string]interface{}, patch.Len())
	for field, value := range patch.values {
		switch field {
		case FieldPassword:
			hash, err := credential.Hash(value.(string))
			if err != nil {
				return nil, err
			}
			columns["password_hash"] = hash
		default:
			columns[string(field)] = value
		}
	}

	deactivating := patch.Has(FieldIsActive) && !patch.values[FieldIsActive].(bool)
	if deactivating && id == actingEmployeeID {
		return nil, ErrSelfDeletion
	}
	if email, ok := columns[string(FieldEmail)].(string); ok && email != employee.Email {
		if err := s.checkEmployeeExist(ctx, "", email); err != nil {
			return nil, err
		}
	}

	if deactivating {
		if _, err := s.deactivate(ctx, id, columns); err != nil {
			return nil, err
		}
	} else if _, err := s.employeeRepo.Updates(ctx, id, columns); err != nil {
		return nil, duplicateKeyError(err)
	}
	return s.GetByID(ctx, id)
}

// deactivate applies columns and ends the employee's sessions in one transaction,
// so an inactive employee is never left with live sessions.
func (s *EmployeeService) deactivate(ctx context.Context, id string, columns map[string]interface{}) (int64, error) {
	var count int64
	err := s.employeeRepo.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.employeeRepo.WithTx(tx).Updates(ctx, id, columns); err != nil {
			return duplicateKeyError(err)
		}
		var err error
		count, err = s.sessions.TerminateAllForEmployeeTx(ctx, tx, id, model.LogoutAccountDeleted)
		return err
	})
	return count, err
}

// Deactivate soft-deletes the employee and terminates all of their active sessions.
func (s *EmployeeService) Deactivate(ctx context.Context, id, actingEmployeeID string) (*model.Employee, error) {
	if id == actingEmployeeID {
		return nil, ErrSelfDeletion
	}
	employee, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.deactivate(ctx, id, map[string]interface{}{"is_active": false})
	if err != nil {
		return nil, err
	}
	employee.IsActive = false
	slog.Info("Employee deactivated", "employeeID", id, "empID", employee.EmpID, "sessionsTerminated", count)
	return employee, nil
}

func (s *EmployeeService) RecordLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.employeeRepo.Updates(ctx, id, map[string]interface{}{"last_login_at": at})
	return err
}

func NewEmployeeService(employeeRepo EmployeeRepository, sessions SessionTerminator) *EmployeeService {
	return &EmployeeService{
		employeeRepo: employeeRepo,
		sessions:     sessions,
	}
}
