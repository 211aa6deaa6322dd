package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/klms/internal/audit"
	"github.com/khanghh/klms/internal/employees"
	"github.com/khanghh/klms/internal/sessions"
	"github.com/khanghh/klms/model"
)

const (
	localEmployeeID = "employeeID"
	localSession    = "session"
	localEmployee   = "employee"
)

const MessageAdminRequired = "Admin access required"

var ErrForbidden = errors.New("forbidden")

type TokenVerifier interface {
	Verify(tokenStr string) (string, error)
}

type SessionValidator interface {
	ValidateAndRefresh(ctx context.Context, tokenStr string) (*model.Session, error)
}

type EmployeeLoader interface {
	GetByID(ctx context.Context, id string) (*model.Employee, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, ev audit.Event)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(ctx *fiber.Ctx) string {
	scheme, tokenStr, ok := strings.Cut(strings.TrimSpace(ctx.Get(fiber.HeaderAuthorization)), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tokenStr)
}

func EmployeeID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(localEmployeeID).(string)
	return id
}

func CurrentSession(ctx *fiber.Ctx) *model.Session {
	session, _ := ctx.Locals(localSession).(*model.Session)
	return session
}

func CurrentEmployee(ctx *fiber.Ctx) *model.Employee {
	employee, _ := ctx.Locals(localEmployee).(*model.Employee)
	return employee
}

// AuditActor describes the caller of the current request for audit records.
func AuditActor(ctx *fiber.Ctx) audit.Actor {
	actor := audit.Actor{
		EmployeeID: EmployeeID(ctx),
		IP:         ctx.IP(),
		UserAgent:  ctx.Get(fiber.HeaderUserAgent),
	}
	if session := CurrentSession(ctx); session != nil {
		actor.SessionID = session.ID
	}
	return actor
}

func unauthorized(ctx *fiber.Ctx) error {
	return JSONError(ctx, fiber.StatusUnauthorized, "Unauthorized", "")
}

// Authenticate performs the stateless token check. It does not consult the session store.
func Authenticate(verifier TokenVerifier) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := BearerToken(ctx)
		if tokenStr == "" {
			return unauthorized(ctx)
		}
		employeeID, err := verifier.Verify(tokenStr)
		if err != nil {
			slog.Debug("Rejected bearer token", "path", ctx.Path(), "error", err)
			return unauthorized(ctx)
		}
		ctx.Locals(localEmployeeID, employeeID)
		return ctx.Next()
	}
}

// AuditSessionEnd records the expiry or idle timeout that a failed validation just applied to session.
func AuditSessionEnd(ctx *fiber.Ctx, recorder AuditRecorder, session *model.Session, err error) {
	if session == nil {
		return
	}
	var eventType string
	switch {
	case errors.Is(err, sessions.ErrSessionExpired):
		eventType = audit.EventSessionExpired
	case errors.Is(err, sessions.ErrSessionIdle):
		eventType = audit.EventSessionIdleTimeout
	default:
		return
	}
	recorder.Record(ctx.UserContext(), audit.Event{
		Actor: audit.Actor{
			EmployeeID: session.EmployeeID,
			SessionID:  session.ID,
			IP:         ctx.IP(),
			UserAgent:  ctx.Get(fiber.HeaderUserAgent),
		},
		EventType:    eventType,
		Category:     model.CategoryAuthentication,
		Severity:     model.SeverityInfo,
		ResourceType: audit.ResourceSession,
		ResourceID:   session.ID,
	})
}

// RequireSession validates the caller's session server-side and refreshes its activity.
func RequireSession(validator SessionValidator, recorder AuditRecorder) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		session, err := validator.ValidateAndRefresh(ctx.UserContext(), BearerToken(ctx))
		if errors.Is(err, sessions.ErrSessionInvalid) {
			slog.Info("Session rejected", "path", ctx.Path(), "ip", ctx.IP(), "cause", err)
			AuditSessionEnd(ctx, recorder, session, err)
			return unauthorized(ctx)
		}
		if err != nil {
			return err
		}
		ctx.Locals(localEmployeeID, session.EmployeeID)
		ctx.Locals(localSession, session)
		return ctx.Next()
	}
}

// RequireRole admits active employees holding role. Rejections are audited as <action>_unauthorized.
func RequireRole(loader EmployeeLoader, recorder AuditRecorder, role model.Role, action string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		employee, err := loader.GetByID(ctx.UserContext(), EmployeeID(ctx))
		if err != nil && !errors.Is(err, employees.ErrEmployeeNotFound) {
			recorder.Record(ctx.UserContext(), audit.SystemError(action, AuditActor(ctx), err))
			return err
		}
		if employee == nil || !employee.IsActive || employee.Role != role {
			slog.Warn("Forbidden", "action", action, "employeeID", EmployeeID(ctx), "ip", ctx.IP())
			ev := audit.Unauthorized(action, AuditActor(ctx))
			ev.Details = map[string]interface{}{"method": ctx.Method(), "path": ctx.Path(), "required_role": role}
			recorder.Record(ctx.UserContext(), ev)
			return JSONError(ctx, fiber.StatusForbidden, MessageAdminRequired, "")
		}
		ctx.Locals(localEmployee, employee)
		return ctx.Next()
	}
}

// AdminOnly chains the full admin gate for action.
func AdminOnly(verifier TokenVerifier, validator SessionValidator, loader EmployeeLoader, recorder AuditRecorder, action string) []fiber.Handler {
	return []fiber.Handler{
		Authenticate(verifier),
		RequireSession(validator, recorder),
		RequireRole(loader, recorder, model.RoleAdmin, action),
	}
}
