package audit

import (
	"context"
	"time"

	"github.com/khanghh/klms/model"
	"github.com/khanghh/klms/params"
	"gorm.io/gorm"
)

// Filter narrows an audit log listing. Zero fields are ignored.
type Filter struct {
	EmployeeID string
	Category   model.EventCategory
	Severity   model.Severity
	EventType  string
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}

func (f Filter) normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = params.AuditListDefaultLimit
	}
	if f.Limit > params.AuditListMaxLimit {
		f.Limit = params.AuditListMaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// AuditLogRepository is append-only.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	Find(ctx context.Context, filter Filter) ([]*model.AuditLog, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

func (r *auditLogRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditLogRepository) Find(ctx context.Context, filter Filter) ([]*model.AuditLog, error) {
	tx := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if filter.EmployeeID != "" {
		tx = tx.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.Category != "" {
		tx = tx.Where("event_category = ?", filter.Category)
	}
	if filter.Severity != "" {
		tx = tx.Where("severity = ?", filter.Severity)
	}
	if filter.EventType != "" {
		tx = tx.Where("event_type = ?", filter.EventType)
	}
	if !filter.Since.IsZero() {
		tx = tx.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		tx = tx.Where("created_at < ?", filter.Until)
	}
	var entries []*model.AuditLog
	err := tx.Order("created_at DESC").Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&entries).Error
	return entries, err
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db}
}
