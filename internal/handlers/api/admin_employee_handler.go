package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/klms/internal/audit"
	"github.com/khanghh/klms/internal/employees"
	"github.com/khanghh/klms/internal/middlewares"
	"github.com/khanghh/klms/model"
)

type EmployeeService interface {
	List(ctx context.Context) ([]*model.Employee, error)
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	Create(ctx context.Context, opts employees.CreateEmployeeOptions) (*model.Employee, error)
	Update(ctx context.Context, id, actingEmployeeID string, patch employees.Patch) (*model.Employee, error)
	Deactivate(ctx context.Context, id, actingEmployeeID string) (*model.Employee, error)
}

type AdminEmployeeHandler struct {
	employees EmployeeService
	recorder  middlewares.AuditRecorder
}

func (h *AdminEmployeeHandler) record(ctx *fiber.Ctx, eventType string, category model.EventCategory, severity model.Severity, resourceID string, details map[string]interface{}) {
	h.recorder.Record(ctx.UserContext(), audit.Event{
		Actor:        middlewares.AuditActor(ctx),
		EventType:    eventType,
		Category:     category,
		Severity:     severity,
		ResourceType: audit.ResourceEmployee,
		ResourceID:   resourceID,
		Details:      details,
	})
}

func (h *AdminEmployeeHandler) GetEmployees(ctx *fiber.Ctx) error {
	list, err := h.employees.List(ctx.UserContext())
	if err != nil {
		h.recorder.Record(ctx.UserContext(), audit.SystemError(audit.ActionViewEmployees, middlewares.AuditActor(ctx), err))
		return err
	}
	return ctx.JSON(successResponse{Success: true, Data: list})
}

func isEmployeeValidationError(err error) bool {
	return errors.Is(err, employees.ErrMissingField) ||
		errors.Is(err, employees.ErrInvalidEmail) ||
		errors.Is(err, employees.ErrInvalidRole) ||
		errors.Is(err, employees.ErrInvalidValue)
}

func (h *AdminEmployeeHandler) PostEmployee(ctx *fiber.Ctx) error {
	var req createEmployeeRequest
	if err := ctx.BodyParser(&req); err != nil {
		h.record(ctx, audit.EventEmployeeCreateFailed, model.CategoryAdmin, model.SeverityError, "", map[string]interface{}{"error": "malformed body"})
		return middlewares.JSONError(ctx, fiber.StatusBadRequest, "Invalid request body", "")
	}

	employee, err := h.employees.Create(ctx.UserContext(), employees.CreateEmployeeOptions{
		EmpID:      req.EmpID,
		Email:      req.Email,
		FullName:   req.FullName,
		Department: req.Department,
		Role:       req.Role,
		Password:   req.Password,
	})
	switch {
	case isEmployeeValidationError(err):
		h.record(ctx, audit.EventEmployeeCreateFailed, model.CategoryAdmin, model.SeverityError, "", map[string]interface{}{"emp_id": req.EmpID, "error": err.Error()})
		return middlewares.JSONError(ctx, fiber.StatusBadRequest, "Failed to create employee: "+err.Error(), "")
	case errors.Is(err, employees.ErrEmpIDTaken), errors.Is(err, employees.ErrEmailTaken):
		h.record(ctx, audit.EventEmployeeCreateFailed, model.CategoryAdmin, model.SeverityError, "", map[string]interface{}{"emp_id": req.EmpID, "error": err.Error()})
		return middlewares.JSONError(ctx, fiber.StatusConflict, "Failed to create employee: "+err.Error(), "")
	case err != nil:
		h.recorder.Record(ctx.UserContext(), audit.SystemError(audit.ActionCreateEmployee, middlewares.AuditActor(ctx), err))
		return err
	}

	h.record(ctx, audit.EventEmployeeCreated, model.CategoryAdmin, model.SeverityInfo, employee.ID, map[string]interface{}{
		"emp_id":     employee.EmpID,
		"role":       employee.Role,
		"department": employee.Department,
	})
	return ctx.Status(fiber.StatusCreated).JSON(successResponse{Success: true, Data: employee})
}

func (h *AdminEmployeeHandler) PutEmployee(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	actor := middlewares.AuditActor(ctx)

	var body map[string]interface{}
	if err := ctx.BodyParser(&body); err != nil {
		h.record(ctx, audit.EventEmployeeUpdateFailed, model.CategoryAdmin, model.SeverityError, id, map[string]interface{}{"error": "malformed body"})
		return middlewares.JSONError(ctx, fiber.StatusBadRequest, "Invalid request body", "")
	}
	patch, err := employees.ParsePatch(body)
	if err != nil {
		h.record(ctx, audit.EventEmployeeUpdateFailed, model.CategoryAdmin, model.SeverityError, id, map[string]interface{}{"error": err.Error()})
		return middlewares.JSONError(ctx, fiber.StatusBadRequest, "Failed to update employee: "+err.Error(), "")
	}

	employee, err := h.employees.Update(ctx.UserContext(), id, actor.EmployeeID, patch)
	switch {
	case errors.Is(err, employees.ErrEmployeeNotFound):
		h.record(ctx, audit.EventEmployeeUpdateNotFound, model.CategoryAdmin, model.SeverityWarning, id, nil)
		return middlewares.JSONError(ctx, fiber.StatusNotFound, "Employee not found", "")
	case errors.Is(err, employees.ErrEmpIDImmutable):
		h.record(ctx, audit.EventEmployeeEmpIDChangeBlocked, model.CategorySecurity, model.SeverityWarning, id, map[string]interface{}{"attempted_emp_id": body["emp_id"]})
		return middlewares.JSONError(ctx, fiber.StatusBadRequest, "Employee ID cannot be changed", "EMP_ID_IMMUTABLE")
	case errors.Is(err, employees.ErrSelfDeletion):
		h.record(ctx, audit.EventEmployeeSelfDeleteAttempt, model.CategorySecurity, model.SeverityWarning, id, nil)
		return middlewares.JSONError(ctx, fiber.StatusBadRequest, "Cannot deactivate your own account", "SELF_DELETION_DENIED")
	case errors.Is(err, employees.ErrNothingToUpdate):
		h.record(ctx, audit.EventEmployeeUpdateFailed, model.CategoryAdmin, model.SeverityError, id, map[string]interface{}{"error": err.Error()})
		return middlewares.JSONError(ctx, fiber.StatusBadRequest, "No valid fields to update", "")
	case errors.Is(err, employees.ErrEmailTaken):
		h.record(ctx, audit.EventEmployeeUpdateFailed, model.CategoryAdmin, model.SeverityError, id, map[string]interface{}{"error": err.Error()})
		return middlewares.JSONError(ctx, fiber.StatusConflict, "Failed to update employee: "+err.Error(), "")
	case err != nil:
		h.recorder.Record(ctx.UserContext(), audit.SystemError(audit.ActionUpdateEmployee, actor, err))
		return err
	}

	fields := make([]string, 0, patch.Len())
	for _, field := range patch.Fields() {
		fields = append(fields, string(field))
	}
	h.record(ctx, audit.EventEmployeeUpdated, model.CategoryAdmin, model.SeverityInfo, id, map[string]interface{}{
		"emp_id":         employee.EmpID,
		"updated_fields": fields,
	})
	return ctx.JSON(successResponse{Success: true, Data: employee})
}

func (h *AdminEmployeeHandler) DeleteEmployee(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	actor := middlewares.AuditActor(ctx)

	employee, err := h.employees.Deactivate(ctx.UserContext(), id, actor.EmployeeID)
	switch {
	case errors.Is(err, employees.ErrSelfDeletion):
		h.record(ctx, audit.EventEmployeeSelfDeleteAttempt, model.CategorySecurity, model.SeverityWarning, id, nil)
		return middlewares.JSONError(ctx, fiber.StatusBadRequest, "Cannot delete your own account", "SELF_DELETION_DENIED")
	case errors.Is(err, employees.ErrEmployeeNotFound):
		h.record(ctx, audit.EventEmployeeDeleteNotFound, model.CategoryAdmin, model.SeverityWarning, id, nil)
		return middlewares.JSONError(ctx, fiber.StatusNotFound, "Employee not found", "")
	case err != nil:
		h.recorder.Record(ctx.UserContext(), audit.SystemError(audit.ActionDeleteEmployee, actor, err))
		return err
	}

	h.record(ctx, audit.EventEmployeeDeleted, model.CategoryAdmin, model.SeverityWarning, id, map[string]interface{}{
		"emp_id":    employee.EmpID,
		"full_name": employee.FullName,
	})
	return ctx.JSON(successResponse{Success: true, Message: "Employee deactivated successfully"})
}

func NewAdminEmployeeHandler(employees EmployeeService, recorder middlewares.AuditRecorder) *AdminEmployeeHandler {
	return &AdminEmployeeHandler{
		employees: employees,
		recorder:  recorder,
	}
}
