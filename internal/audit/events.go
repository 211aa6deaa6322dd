package audit

import "github.com/khanghh/klms/model"

const (
	EventLogin              = "login"
	EventLoginFailed        = "login_failed"
	EventLoginLocked        = "login_locked"
	EventLogout             = "logout"
	EventSessionExpired     = "session_expired"
	EventSessionIdleTimeout = "session_idle_timeout"

	EventForceLogout            = "force_logout"
	EventForceLogoutSelfDenied  = "force_logout_self_denied"
	EventForceLogoutNotFound    = "force_logout_not_found"
	EventForceLogoutSystemError = "force_logout_system_error"

	EventEmployeeCreated            = "employee_created"
	EventEmployeeCreateFailed       = "employee_create_failed"
	EventEmployeeUpdated            = "employee_updated"
	EventEmployeeUpdateFailed       = "employee_update_failed"
	EventEmployeeUpdateNotFound     = "employee_update_not_found"
	EventEmployeeEmpIDChangeBlocked = "employee_empid_change_blocked"
	EventEmployeeDeleted            = "employee_deleted"
	EventEmployeeDeleteNotFound     = "employee_delete_not_found"
	EventEmployeeSelfDeleteAttempt  = "employee_self_delete_attempt"

	EventAuditExport = "audit_export"
)

// Admin actions used to derive <action>_unauthorized and <action>_system_error tags.
const (
	ActionViewSessions   = "view_sessions"
	ActionForceLogout    = "force_logout"
	ActionViewEmployees  = "view_employees"
	ActionCreateEmployee = "employee_create"
	ActionUpdateEmployee = "employee_update"
	ActionDeleteEmployee = "employee_delete"
	ActionViewAuditLogs  = "view_audit_logs"
	ActionExportAudit    = "audit_export"
)

const (
	ResourceSession  = "session"
	ResourceEmployee = "employee"
	ResourceAuditLog = "audit_log"
)

func UnauthorizedEvent(action string) string {
	return action + "_unauthorized"
}

func SystemErrorEvent(action string) string {
	return action + "_system_error"
}

// Unauthorized builds the security event emitted when a caller lacks the role for action.
func Unauthorized(action string, actor Actor) Event {
	return Event{
		Actor:     actor,
		EventType: UnauthorizedEvent(action),
		Category:  model.CategorySecurity,
		Severity:  model.SeverityWarning,
	}
}

// SystemError builds the critical event emitted when action fails on an unexpected error.
func SystemError(action string, actor Actor, err error) Event {
	return Event{
		Actor:     actor,
		EventType: SystemErrorEvent(action),
		Category:  model.CategorySystem,
		Severity:  model.SeverityCritical,
		Details:   map[string]interface{}{"error": err.Error()},
	}
}
