package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/khanghh/klms/model"
	"github.com/khanghh/klms/params"
	"gorm.io/datatypes"
)

// Actor identifies who triggered an event. An empty EmployeeID marks a system event.
type Actor struct {
	EmployeeID string
	SessionID  string
	IP         string
	UserAgent  string
}

type Event struct {
	Actor        Actor
	EventType    string
	Category     model.EventCategory
	Severity     model.Severity
	ResourceType string
	ResourceID   string
	Details      map[string]interface{}
}

// Notifier receives audit entries that need operator attention: critical events and entries
// that could not be persisted. writeErr is nil for the former.
type Notifier interface {
	Notify(entry *model.AuditLog, writeErr error)
}

type Recorder struct {
	repo     AuditLogRepository
	notifier Notifier
	now      func() time.Time
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *Recorder) entry(ev Event) *model.AuditLog {
	entry := &model.AuditLog{
		EmployeeID:    optional(ev.Actor.EmployeeID),
		SessionID:     optional(ev.Actor.SessionID),
		EventType:     ev.EventType,
		EventCategory: ev.Category,
		ResourceType:  ev.ResourceType,
		ResourceID:    ev.ResourceID,
		IPAddress:     ev.Actor.IP,
		UserAgent:     ev.Actor.UserAgent,
		Severity:      ev.Severity,
		CreatedAt:     r.now(),
	}
	if len(ev.Details) > 0 {
		if details, err := json.Marshal(ev.Details); err == nil {
			entry.Details = datatypes.JSON(details)
		} else {
			slog.Warn("Dropping unencodable audit details", "eventType", ev.EventType, "error", err)
		}
	}
	return entry
}

// Record appends ev to the audit trail. It never fails the caller: the write runs detached from
// ctx cancellation under params.AuditWriteTimeout and failures are logged and forwarded to the notifier.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	entry := r.entry(ev)
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), params.AuditWriteTimeout)
	defer cancel()

	if err := r.repo.Create(writeCtx, entry); err != nil {
		slog.Error("Failed to write audit log",
			"eventType", entry.EventType,
			"category", entry.EventCategory,
			"severity", entry.Severity,
			"employeeID", ev.Actor.EmployeeID,
			"error", err,
		)
		if r.notifier != nil {
			r.notifier.Notify(entry, err)
		}
		return
	}
	if entry.Severity == model.SeverityCritical && r.notifier != nil {
		r.notifier.Notify(entry, nil)
	}
}

func (r *Recorder) List(ctx context.Context, filter Filter) ([]*model.AuditLog, error) {
	return r.repo.Find(ctx, filter.normalize())
}

type RecorderOption func(*Recorder)

func WithNotifier(notifier Notifier) RecorderOption {
	return func(r *Recorder) {
		r.notifier = notifier
	}
}

func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

func NewRecorder(repo AuditLogRepository, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
