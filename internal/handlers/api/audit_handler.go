package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/klms/internal/audit"
	"github.com/khanghh/klms/internal/middlewares"
	"github.com/khanghh/klms/model"
	"github.com/khanghh/klms/params"
)

type AuditReader interface {
	List(ctx context.Context, filter audit.Filter) ([]*model.AuditLog, error)
}

type EmployeeLister interface {
	List(ctx context.Context) ([]*model.Employee, error)
}

type AuditHandler struct {
	logs      AuditReader
	employees EmployeeLister
	recorder  middlewares.AuditRecorder
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

func auditFilter(ctx *fiber.Ctx) (audit.Filter, error) {
	filter := audit.Filter{
		EmployeeID: ctx.Query("employee_id"),
		Category:   model.EventCategory(ctx.Query("category")),
		Severity:   model.Severity(ctx.Query("severity")),
		EventType:  ctx.Query("event_type"),
		Limit:      ctx.QueryInt("limit"),
		Offset:     ctx.QueryInt("offset"),
	}
	var err error
	if filter.Since, err = parseTime(ctx.Query("since")); err != nil {
		return filter, fmt.Errorf("invalid since: %w", err)
	}
	if filter.Until, err = parseTime(ctx.Query("until")); err != nil {
		return filter, fmt.Errorf("invalid until: %w", err)
	}
	return filter, nil
}

func (h *AuditHandler) GetAuditLogs(ctx *fiber.Ctx) error {
	filter, err := auditFilter(ctx)
	if err != nil {
		return middlewares.JSONError(ctx, fiber.StatusBadRequest, err.Error(), "")
	}
	logs, err := h.logs.List(ctx.UserContext(), filter)
	if err != nil {
		h.recorder.Record(ctx.UserContext(), audit.SystemError(audit.ActionViewAuditLogs, middlewares.AuditActor(ctx), err))
		return err
	}
	return ctx.JSON(successResponse{Success: true, Data: logs})
}

// GetExport streams the filtered audit trail as CSV, resolving actors to employee codes.
func (h *AuditHandler) GetExport(ctx *fiber.Ctx) error {
	filter, err := auditFilter(ctx)
	if err != nil {
		return middlewares.JSONError(ctx, fiber.StatusBadRequest, err.Error(), "")
	}
	if filter.Limit == 0 {
		filter.Limit = params.AuditListMaxLimit
	}
	logs, err := h.logs.List(ctx.UserContext(), filter)
	if err != nil {
		h.recorder.Record(ctx.UserContext(), audit.SystemError(audit.ActionExportAudit, middlewares.AuditActor(ctx), err))
		return err
	}
	list, err := h.employees.List(ctx.UserContext())
	if err != nil {
		h.recorder.Record(ctx.UserContext(), audit.SystemError(audit.ActionExportAudit, middlewares.AuditActor(ctx), err))
		return err
	}
	codes := make(audit.EmployeeCodes, len(list))
	for _, employee := range list {
		codes[employee.ID] = employee.EmpID
	}

	filename := fmt.Sprintf("audit-logs-%s.csv", time.Now().UTC().Format("20060102T150405Z"))
	ctx.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := audit.WriteCSV(ctx, logs, codes); err != nil {
		h.recorder.Record(ctx.UserContext(), audit.SystemError(audit.ActionExportAudit, middlewares.AuditActor(ctx), err))
		return err
	}

	h.recorder.Record(ctx.UserContext(), audit.Event{
		Actor:        middlewares.AuditActor(ctx),
		EventType:    audit.EventAuditExport,
		Category:     model.CategoryAdmin,
		Severity:     model.SeverityInfo,
		ResourceType: audit.ResourceAuditLog,
		Details:      map[string]interface{}{"rows": len(logs)},
	})
	return nil
}

func NewAuditHandler(logs AuditReader, employees EmployeeLister, recorder middlewares.AuditRecorder) *AuditHandler {
	return &AuditHandler{
		logs:      logs,
		employees: employees,
		recorder:  recorder,
	}
}
