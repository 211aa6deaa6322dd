package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/klms/internal/audit"
	"github.com/khanghh/klms/internal/middlewares"
	"github.com/khanghh/klms/internal/sessions"
	"github.com/khanghh/klms/model"
)

type SessionAdmin interface {
	ListActive(ctx context.Context) ([]*model.Session, error)
	ForceLogout(ctx context.Context, targetID, actingEmployeeID, actingSessionID string) (*model.Session, error)
	State(session *model.Session) sessions.State
}

type AdminSessionHandler struct {
	sessions SessionAdmin
	recorder middlewares.AuditRecorder
}

func (h *AdminSessionHandler) GetSessions(ctx *fiber.Ctx) error {
	active, err := h.sessions.ListActive(ctx.UserContext())
	if err != nil {
		h.recorder.Record(ctx.UserContext(), audit.SystemError(audit.ActionViewSessions, middlewares.AuditActor(ctx), err))
		return err
	}
	views := make([]sessionView, 0, len(active))
	for _, s := range active {
		views = append(views, sessionView{Session: s, State: h.sessions.State(s).String()})
	}
	return ctx.JSON(successResponse{Success: true, Data: views})
}

func (h *AdminSessionHandler) PostForceLogout(ctx *fiber.Ctx) error {
	targetID := ctx.Params("id")
	actor := middlewares.AuditActor(ctx)
	ev := audit.Event{
		Actor:        actor,
		ResourceType: audit.ResourceSession,
		ResourceID:   targetID,
	}

	target, err := h.sessions.ForceLogout(ctx.UserContext(), targetID, actor.EmployeeID, actor.SessionID)
	switch {
	case errors.Is(err, sessions.ErrSelfSessionLogout):
		ev.EventType, ev.Category, ev.Severity = audit.EventForceLogoutSelfDenied, model.CategorySecurity, model.SeverityWarning
		h.recorder.Record(ctx.UserContext(), ev)
		return middlewares.JSONError(ctx, fiber.StatusBadRequest,
			"You cannot force logout your own session, use the logout button instead", "SELF_SESSION_LOGOUT_DENIED")
	case errors.Is(err, sessions.ErrSessionNotFound):
		ev.EventType, ev.Category, ev.Severity = audit.EventForceLogoutNotFound, model.CategoryAdmin, model.SeverityWarning
		h.recorder.Record(ctx.UserContext(), ev)
		return middlewares.JSONError(ctx, fiber.StatusNotFound, "Session not found", "")
	case err != nil:
		h.recorder.Record(ctx.UserContext(), audit.SystemError(audit.ActionForceLogout, actor, err))
		return err
	}

	ev.EventType, ev.Category, ev.Severity = audit.EventForceLogout, model.CategoryAdmin, model.SeverityWarning
	ev.Details = map[string]interface{}{"target_employee_id": target.EmployeeID}
	h.recorder.Record(ctx.UserContext(), ev)
	return ctx.JSON(successResponse{Success: true})
}

func NewAdminSessionHandler(sessions SessionAdmin, recorder middlewares.AuditRecorder) *AdminSessionHandler {
	return &AdminSessionHandler{
		sessions: sessions,
		recorder: recorder,
	}
}
