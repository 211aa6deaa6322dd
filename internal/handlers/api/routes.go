package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/klms/internal/audit"
	"github.com/khanghh/klms/internal/middlewares"
	"github.com/khanghh/klms/internal/store"
)

type SessionService interface {
	SessionValidator
	SessionAdmin
}

type Dependencies struct {
	Verifier     TokenVerifier
	Sessions     SessionService
	Employees    EmployeeService
	LoginService LoginService
	AuditLogs    AuditReader
	Recorder     middlewares.AuditRecorder

	// RateLimitStorage backs the login rate limiter; nil disables it.
	RateLimitStorage store.Storage
	RateLimitMax     int
	RateLimitWindow  time.Duration
}

func SetupRoutes(router fiber.Router, deps Dependencies) {
	var (
		authHandler          = NewAuthHandler(deps.LoginService, deps.Sessions, deps.Verifier, deps.Recorder)
		adminSessionHandler  = NewAdminSessionHandler(deps.Sessions, deps.Recorder)
		adminEmployeeHandler = NewAdminEmployeeHandler(deps.Employees, deps.Recorder)
		auditHandler         = NewAuditHandler(deps.AuditLogs, deps.Employees, deps.Recorder)
	)
	admin := func(action string) []fiber.Handler {
		return middlewares.AdminOnly(deps.Verifier, deps.Sessions, deps.Employees, deps.Recorder, action)
	}
	adminRoute := func(action string, handler fiber.Handler) []fiber.Handler {
		return append(admin(action), handler)
	}

	api := router.Group("/api")
	api.Get("/health", GetHealth)

	loginHandlers := []fiber.Handler{authHandler.PostLogin}
	if deps.RateLimitStorage != nil {
		loginHandlers = append([]fiber.Handler{
			middlewares.RateLimiter(deps.RateLimitStorage, deps.RateLimitMax, deps.RateLimitWindow),
		}, loginHandlers...)
	}
	api.Post("/auth/login", loginHandlers...)
	api.Post("/auth/logout", authHandler.PostLogout)
	api.Get("/auth/validate", authHandler.GetValidate)

	api.Get("/admin/sessions", adminRoute(audit.ActionViewSessions, adminSessionHandler.GetSessions)...)
	api.Post("/admin/sessions/:id/force-logout", adminRoute(audit.ActionForceLogout, adminSessionHandler.PostForceLogout)...)

	api.Get("/admin/employees", adminRoute(audit.ActionViewEmployees, adminEmployeeHandler.GetEmployees)...)
	api.Post("/admin/employees", adminRoute(audit.ActionCreateEmployee, adminEmployeeHandler.PostEmployee)...)
	api.Put("/admin/employees/:id", adminRoute(audit.ActionUpdateEmployee, adminEmployeeHandler.PutEmployee)...)
	api.Delete("/admin/employees/:id", adminRoute(audit.ActionDeleteEmployee, adminEmployeeHandler.DeleteEmployee)...)

	api.Get("/admin/audit-logs", adminRoute(audit.ActionViewAuditLogs, auditHandler.GetAuditLogs)...)
	api.Get("/admin/audit-logs/export", adminRoute(audit.ActionExportAudit, auditHandler.GetExport)...)

	api.Use(func(ctx *fiber.Ctx) error {
		return middlewares.JSONError(ctx, fiber.StatusNotFound, "Endpoint not found", "")
	})
}
