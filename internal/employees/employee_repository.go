package employees

import (
	"context"
	"time"

	"github.com/khanghh/klms/model"
	"gorm.io/gorm"
)

type EmployeeRepository interface {
	WithTx(tx *gorm.DB) EmployeeRepository
	FindByID(ctx context.Context, id string) (*model.Employee, error)
	FindByEmpID(ctx context.Context, empID string) (*model.Employee, error)
	FindByEmail(ctx context.Context, email string) (*model.Employee, error)
	Find(ctx context.Context) ([]*model.Employee, error)
	Create(ctx context.Context, employee *model.Employee) error
	Updates(ctx context.Context, id string, columns map[string]interface{}) (int64, error)
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type employeeRepository struct {
	db *gorm.DB
}

func (r *employeeRepository) WithTx(tx *gorm.DB) EmployeeRepository {
	return NewEmployeeRepository(tx)
}

func (r *employeeRepository) first(ctx context.Context, query string, args ...interface{}) (*model.Employee, error) {
	var employee model.Employee
	if err := r.db.WithContext(ctx).Where(query, args...).First(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) FindByID(ctx context.Context, id string) (*model.Employee, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *employeeRepository) FindByEmpID(ctx context.Context, empID string) (*model.Employee, error) {
	return r.first(ctx, "emp_id = ?", empID)
}

func (r *employeeRepository) FindByEmail(ctx context.Context, email string) (*model.Employee, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *employeeRepository) Find(ctx context.Context) ([]*model.Employee, error) {
	var employees []*model.Employee
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&employees).Error
	return employees, err
}

func (r *employeeRepository) Create(ctx context.Context, employee *model.Employee) error {
	return r.db.WithContext(ctx).Create(employee).Error
}

func (r *employeeRepository) Updates(ctx context.Context, id string, columns map[string]interface{}) (int64, error) {
	columns["updated_at"] = time.Now()
	tx := r.db.WithContext(ctx).Model(&model.Employee{}).Where("id = ?", id).Updates(columns)
	return tx.RowsAffected, tx.Error
}

func (r *employeeRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db}
}
