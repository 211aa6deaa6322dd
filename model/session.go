package model

import (
	"time"

	"gorm.io/gorm"
)

type LogoutReason string

const (
	LogoutManual         LogoutReason = "manual"
	LogoutTimeout        LogoutReason = "timeout" // idle timeout
	LogoutExpired        LogoutReason = "expired" // absolute lifetime elapsed
	LogoutAdminForced    LogoutReason = "admin_forced"
	LogoutAccountDeleted LogoutReason = "account_deleted"
)

// Session is one authenticated browser context. Once IsActive is false the row is never reactivated.
type Session struct {
	ID             string       `gorm:"primaryKey;size:32"            json:"id"`
	EmployeeID     string       `gorm:"size:32;not null;index"        json:"employee_id"`
	TokenHash      string       `gorm:"size:64;not null;uniqueIndex"  json:"-"` // sha256 of the bearer token
	IPAddress      string       `gorm:"size:45;not null;default:''"   json:"ip_address"`
	UserAgent      string       `gorm:"size:512;not null;default:''"  json:"user_agent"`
	LastActivityAt time.Time    `gorm:"not null"                      json:"last_activity_at"`
	ExpiresAt      time.Time    `gorm:"not null;index"                json:"expires_at"`
	IsActive       bool         `gorm:"not null;default:true;index"   json:"is_active"`
	LogoutReason   LogoutReason `gorm:"size:32;not null;default:''"   json:"logout_reason,omitempty"`
	CreatedAt      time.Time    `                                     json:"created_at"`

	Employee *Employee `gorm:"foreignKey:EmployeeID;references:ID" json:"employee,omitempty"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = GenerateID()
	}
	return nil
}
