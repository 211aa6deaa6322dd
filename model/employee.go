package model

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// Employee stores employee identity. EmpID is assigned at creation and never changes.
type Employee struct {
	ID           string     `gorm:"primaryKey;size:32"                json:"id"`
	EmpID        string     `gorm:"uniqueIndex;size:32;not null"      json:"emp_id"`
	Email        string     `gorm:"uniqueIndex;size:256;not null"     json:"email"`
	FullName     string     `gorm:"size:128;not null"                 json:"full_name"`
	Department   string     `gorm:"size:128;not null;default:''"      json:"department"`
	Role         Role       `gorm:"size:16;not null;default:employee" json:"role"`
	IsActive     bool       `gorm:"not null;default:true;index"       json:"is_active"`
	PasswordHash string     `gorm:"size:72;not null"                  json:"-"`
	LastLoginAt  *time.Time `                                         json:"last_login_at"`
	CreatedAt    time.Time  `                                         json:"created_at"`
	UpdatedAt    time.Time  `                                         json:"updated_at"`
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = GenerateID()
	}
	return nil
}

func (e *Employee) IsAdmin() bool {
	return e.Role == RoleAdmin
}
