package sessions

import (
	"context"
	"time"

	"github.com/khanghh/klms/model"
	"gorm.io/gorm"
)

type SessionRepository interface {
	WithTx(tx *gorm.DB) SessionRepository
	Create(ctx context.Context, session *model.Session) error
	FindByID(ctx context.Context, id string) (*model.Session, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)
	FindActive(ctx context.Context) ([]*model.Session, error)
	Touch(ctx context.Context, id string, at time.Time) (int64, error)
	Deactivate(ctx context.Context, id string, reason model.LogoutReason) (int64, error)
	DeactivateByEmployee(ctx context.Context, employeeID string, reason model.LogoutReason) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func (r *sessionRepository) WithTx(tx *gorm.DB) SessionRepository {
	return NewSessionRepository(tx)
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	var session model.Session
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FindActive(ctx context.Context) ([]*model.Session, error) {
	var sessions []*model.Session
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("is_active = ?", true).
		Order("last_activity_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// Touch moves last_activity_at forward to at. Older timestamps and inactive rows are left alone.
func (r *sessionRepository) Touch(ctx context.Context, id string, at time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND is_active = ? AND last_activity_at < ?", id, true, at).
		Update("last_activity_at", at)
	return tx.RowsAffected, tx.Error
}

func (r *sessionRepository) Deactivate(ctx context.Context, id string, reason model.LogoutReason) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{"is_active": false, "logout_reason": reason})
	return tx.RowsAffected, tx.Error
}

func (r *sessionRepository) DeactivateByEmployee(ctx context.Context, employeeID string, reason model.LogoutReason) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("employee_id = ? AND is_active = ?", employeeID, true).
		Updates(map[string]interface{}{"is_active": false, "logout_reason": reason})
	return tx.RowsAffected, tx.Error
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db}
}
