package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventCategory string

const (
	CategoryAuthentication EventCategory = "authentication"
	CategoryContent        EventCategory = "content"
	CategorySecurity       EventCategory = "security"
	CategoryAdmin          EventCategory = "admin"
	CategorySystem         EventCategory = "system"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// AuditLog is append-only: rows are inserted and never updated or deleted.
type AuditLog struct {
	ID            string         `gorm:"primaryKey;size:32"          json:"id"`
	EmployeeID    *string        `gorm:"size:32;index"               json:"employee_id"` // nil for system events
	SessionID     *string        `gorm:"size:32;index"               json:"session_id"`
	EventType     string         `gorm:"size:64;not null;index"      json:"event_type"`
	EventCategory EventCategory  `gorm:"size:32;not null;index"      json:"event_category"`
	ResourceType  string         `gorm:"size:64;not null;default:''" json:"resource_type,omitempty"`
	ResourceID    string         `gorm:"size:64;not null;default:''" json:"resource_id,omitempty"`
	Details       datatypes.JSON `                                   json:"action_details,omitempty"`
	IPAddress     string         `gorm:"size:45;not null;default:''" json:"ip_address"`
	UserAgent     string         `gorm:"size:512;not null;default:''" json:"user_agent"`
	Severity      Severity       `gorm:"size:16;not null;index"      json:"severity"`
	CreatedAt     time.Time      `gorm:"index"                       json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = GenerateID()
	}
	return nil
}
