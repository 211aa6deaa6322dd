package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/khanghh/klms/internal/audit"
	"github.com/khanghh/klms/internal/auth"
	"github.com/khanghh/klms/internal/employees"
	"github.com/khanghh/klms/internal/middlewares"
	"github.com/khanghh/klms/internal/sessions"
	"github.com/khanghh/klms/internal/testutil"
	"github.com/khanghh/klms/internal/token"
	"github.com/khanghh/klms/model"
	"github.com/khanghh/klms/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errStoreDown = errors.New("store unavailable")

type testServer struct {
	app       *fiber.App
	db        *gorm.DB
	clock     *testutil.Clock
	manager   *sessions.Manager
	employees *employees.EmployeeService
	deps      Dependencies
}

type serverOption func(*Dependencies)

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	db := testutil.OpenDB(t)
	clock := testutil.NewClock()
	issuer := token.NewIssuer("test-secret", clock.Now)
	manager := sessions.NewManager(sessions.NewSessionRepository(db), issuer, sessions.WithClock(clock.Now))
	employeeService := employees.NewEmployeeService(employees.NewEmployeeRepository(db), manager)
	recorder := audit.NewRecorder(audit.NewAuditLogRepository(db), audit.WithClock(clock.Now))
	storage := memory.New()
	t.Cleanup(func() { storage.Close() })

	deps := Dependencies{
		Verifier:     issuer,
		Sessions:     manager,
		Employees:    employeeService,
		LoginService: auth.NewLoginService(employeeService, manager, issuer, recorder, storage, auth.WithClock(clock.Now)),
		AuditLogs:    recorder,
		Recorder:     recorder,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	SetupRoutes(app, deps)
	return &testServer{
		app:       app,
		db:        db,
		clock:     clock,
		manager:   manager,
		employees: employeeService,
		deps:      deps,
	}
}

type response struct {
	status int
	body   []byte
}

func (r response) json(t *testing.T) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body interface{}) response {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, body: data}
}

type loginInfo struct {
	token     string
	sessionID string
}

func (s *testServer) login(t *testing.T, empID, password string) loginInfo {
	resp := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"emp_id": empID, "password": password})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	body := resp.json(t)
	return loginInfo{token: body["token"].(string), sessionID: body["sessionId"].(string)}
}

func (s *testServer) session(t *testing.T, id string) model.Session {
	var session model.Session
	require.NoError(t, s.db.First(&session, "id = ?", id).Error)
	return session
}

func (s *testServer) auditRows(t *testing.T, eventType string) []model.AuditLog {
	var rows []model.AuditLog
	require.NoError(t, s.db.Where("event_type = ?", eventType).Order("created_at").Find(&rows).Error)
	return rows
}

func (s *testServer) requireAudit(t *testing.T, eventType string, category model.EventCategory, severity model.Severity) model.AuditLog {
	t.Helper()
	rows := s.auditRows(t, eventType)
	require.NotEmpty(t, rows, "no audit row for %s", eventType)
	row := rows[len(rows)-1]
	assert.Equal(t, category, row.EventCategory, eventType)
	assert.Equal(t, severity, row.Severity, eventType)
	return row
}

func TestLoginValidateAndIdleTimeout(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateEmployee(t, srv.db, "EMP001", model.RoleEmployee, "password1")

	resp := srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"emp_id": "EMP001", "password": "password1"})
	require.Equal(t, http.StatusOK, resp.status)
	body := resp.json(t)
	assert.NotEmpty(t, body["sessionId"])
	assert.NotEmpty(t, body["token"])
	employee := body["employee"].(map[string]interface{})
	assert.Equal(t, "EMP001", employee["emp_id"])
	assert.NotContains(t, employee, "password_hash")
	expiresAt, err := time.Parse(time.RFC3339, body["expiresAt"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, srv.clock.Now().Add(params.SessionLifetime), expiresAt, time.Second)

	tokenStr := body["token"].(string)
	sessionID := body["sessionId"].(string)
	session := srv.session(t, sessionID)
	assert.True(t, session.IsActive)
	before := session.LastActivityAt

	srv.clock.Advance(time.Minute)
	resp = srv.do(t, http.MethodGet, "/api/auth/validate", tokenStr, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, true, resp.json(t)["valid"])
	assert.True(t, srv.session(t, sessionID).LastActivityAt.After(before))

	srv.clock.Advance(31 * time.Minute)
	resp = srv.do(t, http.MethodGet, "/api/auth/validate", tokenStr, nil)
	require.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, false, resp.json(t)["valid"])

	session = srv.session(t, sessionID)
	assert.False(t, session.IsActive)
	assert.Equal(t, model.LogoutTimeout, session.LogoutReason)
	srv.requireAudit(t, audit.EventSessionIdleTimeout, model.CategoryAuthentication, model.SeverityInfo)
}

func TestValidateRejectsMissingAndExpiredTokens(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateEmployee(t, srv.db, "EMP001", model.RoleEmployee, "password1")

	resp := srv.do(t, http.MethodGet, "/api/auth/validate", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, false, resp.json(t)["valid"])

	info := srv.login(t, "EMP001", "password1")
	srv.clock.Advance(params.SessionLifetime + time.Minute)
	resp = srv.do(t, http.MethodGet, "/api/auth/validate", info.token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, model.LogoutExpired, srv.session(t, info.sessionID).LogoutReason)
	srv.requireAudit(t, audit.EventSessionExpired, model.CategoryAuthentication, model.SeverityInfo)
}

func TestLoginFailurePayloadsAreIdentical(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateEmployee(t, srv.db, "EMP001", model.RoleEmployee, "password1")

	wrong := srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"emp_id": "EMP001", "password": "bad"})
	unknown := srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"emp_id": "EMP999", "password": "bad"})
	require.Equal(t, http.StatusUnauthorized, wrong.status)
	require.Equal(t, http.StatusUnauthorized, unknown.status)
	assert.Equal(t, wrong.body, unknown.body)
	assert.Equal(t, "Invalid credentials", wrong.json(t)["message"])

	missing := srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"emp_id": "EMP001"})
	assert.Equal(t, http.StatusBadRequest, missing.status)
}

func TestLoginRateLimit(t *testing.T) {
	storage := memory.New()
	t.Cleanup(func() { storage.Close() })
	srv := newTestServer(t, func(d *Dependencies) {
		d.RateLimitStorage = storage
		d.RateLimitMax = 2
		d.RateLimitWindow = time.Minute
	})

	for i := 0; i < 2; i++ {
		resp := srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"emp_id": "X", "password": "y"})
		assert.Equal(t, http.StatusUnauthorized, resp.status)
	}
	resp := srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"emp_id": "X", "password": "y"})
	assert.Equal(t, http.StatusTooManyRequests, resp.status)
}

func TestLogout(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateEmployee(t, srv.db, "EMP001", model.RoleEmployee, "password1")
	info := srv.login(t, "EMP001", "password1")

	resp := srv.do(t, http.MethodPost, "/api/auth/logout", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = srv.do(t, http.MethodPost, "/api/auth/logout", info.token, map[string]string{"reason": "timeout"})
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, true, resp.json(t)["success"])

	session := srv.session(t, info.sessionID)
	assert.False(t, session.IsActive)
	assert.Equal(t, model.LogoutTimeout, session.LogoutReason)
	srv.requireAudit(t, audit.EventLogout, model.CategoryAuthentication, model.SeverityInfo)

	resp = srv.do(t, http.MethodPost, "/api/auth/logout", info.token, nil)
	assert.Equal(t, http.StatusOK, resp.status)

	resp = srv.do(t, http.MethodGet, "/api/auth/validate", info.token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestForceLogout(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateEmployee(t, srv.db, "ADM001", model.RoleAdmin, "password1")
	testutil.CreateEmployee(t, srv.db, "EMP001", model.RoleEmployee, "password2")
	admin := srv.login(t, "ADM001", "password1")
	target := srv.login(t, "EMP001", "password2")

	resp := srv.do(t, http.MethodPost, "/api/admin/sessions/"+target.sessionID+"/force-logout", admin.token, nil)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, true, resp.json(t)["success"])

	session := srv.session(t, target.sessionID)
	assert.False(t, session.IsActive)
	assert.Equal(t, model.LogoutAdminForced, session.LogoutReason)
	row := srv.requireAudit(t, audit.EventForceLogout, model.CategoryAdmin, model.SeverityWarning)
	assert.Equal(t, target.sessionID, row.ResourceID)

	resp = srv.do(t, http.MethodGet, "/api/auth/validate", target.token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestForceLogoutOwnSessionDenied(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateEmployee(t, srv.db, "ADM001", model.RoleAdmin, "password1")
	admin := srv.login(t, "ADM001", "password1")

	resp := srv.do(t, http.MethodPost, "/api/admin/sessions/"+admin.sessionID+"/force-logout", admin.token, nil)
	require.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "SELF_SESSION_LOGOUT_DENIED", resp.json(t)["code"])
	assert.True(t, srv.session(t, admin.sessionID).IsActive)
	srv.requireAudit(t, audit.EventForceLogoutSelfDenied, model.CategorySecurity, model.SeverityWarning)

	resp = srv.do(t, http.MethodGet, "/api/auth/validate", admin.token, nil)
	assert.Equal(t, http.StatusOK, resp.status)
}

func TestAdminEndpointsRejectNonAdmins(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateEmployee(t, srv.db, "EMP001", model.RoleEmployee, "password1")
	emp := srv.login(t, "EMP001", "password1")

	endpoints := []struct {
		method string
		path   string
		action string
	}{
		{http.MethodGet, "/api/admin/sessions", audit.ActionViewSessions},
		{http.MethodPost, "/api/admin/sessions/123/force-logout", audit.ActionForceLogout},
		{http.MethodGet, "/api/admin/employees", audit.ActionViewEmployees},
		{http.MethodPost, "/api/admin/employees", audit.ActionCreateEmployee},
		{http.MethodPut, "/api/admin/employees/123", audit.ActionUpdateEmployee},
		{http.MethodDelete, "/api/admin/employees/123", audit.ActionDeleteEmployee},
		{http.MethodGet, "/api/admin/audit-logs", audit.ActionViewAuditLogs},
		{http.MethodGet, "/api/admin/audit-logs/export", audit.ActionExportAudit},
	}
	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			resp := srv.do(t, ep.method, ep.path, emp.token, map[string]string{})
			require.Equal(t, http.StatusForbidden, resp.status)
			assert.Equal(t, "Admin access required", resp.json(t)["message"])
			srv.requireAudit(t, audit.UnauthorizedEvent(ep.action), model.CategorySecurity, model.SeverityWarning)
		})
	}

	resp := srv.do(t, http.MethodGet, "/api/admin/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestDeactivatedAdminIsForbidden(t *testing.T) {
	srv := newTestServer(t)
	adm := testutil.CreateEmployee(t, srv.db, "ADM001", model.RoleAdmin, "password1")
	admin := srv.login(t, "ADM001", "password1")
	require.NoError(t, srv.db.Model(adm).Update("is_active", false).Error)

	resp := srv.do(t, http.MethodGet, "/api/admin/sessions", admin.token, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)
}

func TestAdminListsSessions(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateEmployee(t, srv.db, "ADM001", model.RoleAdmin, "password1")
	testutil.CreateEmployee(t, srv.db, "EMP001", model.RoleEmployee, "password2")
	admin := srv.login(t, "ADM001", "password1")
	srv.login(t, "EMP001", "password2")

	resp := srv.do(t, http.MethodGet, "/api/admin/sessions", admin.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	data := resp.json(t)["data"].([]interface{})
	assert.Len(t, data, 2)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "active", first["state"])
	assert.NotContains(t, first, "token_hash")
}

func TestEmployeeLifecycle(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateEmployee(t, srv.db, "ADM001", model.RoleAdmin, "password1")
	admin := srv.login(t, "ADM001", "password1")

	resp := srv.do(t, http.MethodPost, "/api/admin/employees", admin.token, map[string]string{
		"emp_id": "EMP100", "email": "emp100@example.com", "full_name": "New Hire", "password": "welcome1",
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	created := resp.json(t)["data"].(map[string]interface{})
	id := created["id"].(string)
	srv.requireAudit(t, audit.EventEmployeeCreated, model.CategoryAdmin, model.SeverityInfo)

	resp = srv.do(t, http.MethodPost, "/api/admin/employees", admin.token, map[string]string{
		"emp_id": "EMP100", "email": "other@example.com", "full_name": "Dup", "password": "x",
	})
	assert.Equal(t, http.StatusConflict, resp.status)
	srv.requireAudit(t, audit.EventEmployeeCreateFailed, model.CategoryAdmin, model.SeverityError)

	resp = srv.do(t, http.MethodPut, "/api/admin/employees/"+id, admin.token, map[string]interface{}{"department": "Sales"})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, "Sales", resp.json(t)["data"].(map[string]interface{})["department"])
	srv.requireAudit(t, audit.EventEmployeeUpdated, model.CategoryAdmin, model.SeverityInfo)

	resp = srv.do(t, http.MethodPut, "/api/admin/employees/"+id, admin.token, map[string]interface{}{"emp_id": "EMP200"})
	require.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "EMP_ID_IMMUTABLE", resp.json(t)["code"])
	srv.requireAudit(t, audit.EventEmployeeEmpIDChangeBlocked, model.CategorySecurity, model.SeverityWarning)
	stored, err := srv.employees.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "EMP100", stored.EmpID)

	resp = srv.do(t, http.MethodPut, "/api/admin/employees/"+id, admin.token, map[string]interface{}{"unknown": 1})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	srv.requireAudit(t, audit.EventEmployeeUpdateFailed, model.CategoryAdmin, model.SeverityError)

	resp = srv.do(t, http.MethodPut, "/api/admin/employees/missing", admin.token, map[string]interface{}{"department": "x"})
	assert.Equal(t, http.StatusNotFound, resp.status)
	srv.requireAudit(t, audit.EventEmployeeUpdateNotFound, model.CategoryAdmin, model.SeverityWarning)

	resp = srv.do(t, http.MethodGet, "/api/admin/employees", admin.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Len(t, resp.json(t)["data"].([]interface{}), 2)
}

func TestDeleteEmployeeCascadesSessions(t *testing.T) {
	srv := newTestServer(t)
	adm := testutil.CreateEmployee(t, srv.db, "ADM001", model.RoleAdmin, "password1")
	emp := testutil.CreateEmployee(t, srv.db, "EMP001", model.RoleEmployee, "password2")
	admin := srv.login(t, "ADM001", "password1")
	s1 := srv.login(t, "EMP001", "password2")
	s2 := srv.login(t, "EMP001", "password2")

	resp := srv.do(t, http.MethodDelete, "/api/admin/employees/"+adm.ID, admin.token, nil)
	require.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "SELF_DELETION_DENIED", resp.json(t)["code"])
	srv.requireAudit(t, audit.EventEmployeeSelfDeleteAttempt, model.CategorySecurity, model.SeverityWarning)

	resp = srv.do(t, http.MethodDelete, "/api/admin/employees/missing", admin.token, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
	srv.requireAudit(t, audit.EventEmployeeDeleteNotFound, model.CategoryAdmin, model.SeverityWarning)

	resp = srv.do(t, http.MethodDelete, "/api/admin/employees/"+emp.ID, admin.token, nil)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	srv.requireAudit(t, audit.EventEmployeeDeleted, model.CategoryAdmin, model.SeverityWarning)

	for _, info := range []loginInfo{s1, s2} {
		session := srv.session(t, info.sessionID)
		assert.False(t, session.IsActive)
		assert.Equal(t, model.LogoutAccountDeleted, session.LogoutReason)
		resp = srv.do(t, http.MethodGet, "/api/auth/validate", info.token, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.status)
	}

	resp = srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"emp_id": "EMP001", "password": "password2"})
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

type failingSessions struct {
	*sessions.Manager
}

func (failingSessions) ForceLogout(ctx context.Context, targetID, actingEmployeeID, actingSessionID string) (*model.Session, error) {
	return nil, errStoreDown
}

type failingEmployees struct {
	*employees.EmployeeService
}

func (failingEmployees) Create(ctx context.Context, opts employees.CreateEmployeeOptions) (*model.Employee, error) {
	return nil, errStoreDown
}

func (failingEmployees) Update(ctx context.Context, id, actingEmployeeID string, patch employees.Patch) (*model.Employee, error) {
	return nil, errStoreDown
}

func (failingEmployees) Deactivate(ctx context.Context, id, actingEmployeeID string) (*model.Employee, error) {
	return nil, errStoreDown
}

func TestAdminMutationStoreErrors(t *testing.T) {
	srv := newTestServer(t, func(d *Dependencies) {
		d.Sessions = failingSessions{d.Sessions.(*sessions.Manager)}
		d.Employees = failingEmployees{d.Employees.(*employees.EmployeeService)}
	})
	testutil.CreateEmployee(t, srv.db, "ADM001", model.RoleAdmin, "password1")
	admin := srv.login(t, "ADM001", "password1")

	calls := []struct {
		method string
		path   string
		body   interface{}
		action string
	}{
		{http.MethodPost, "/api/admin/sessions/123/force-logout", nil, audit.ActionForceLogout},
		{http.MethodPost, "/api/admin/employees", map[string]string{"emp_id": "E"}, audit.ActionCreateEmployee},
		{http.MethodPut, "/api/admin/employees/123", map[string]string{"department": "x"}, audit.ActionUpdateEmployee},
		{http.MethodDelete, "/api/admin/employees/123", nil, audit.ActionDeleteEmployee},
	}
	for _, call := range calls {
		resp := srv.do(t, call.method, call.path, admin.token, call.body)
		require.Equal(t, http.StatusInternalServerError, resp.status, call.path)
		assert.Equal(t, "Internal server error", resp.json(t)["message"])
		assert.NotContains(t, string(resp.body), errStoreDown.Error())
		srv.requireAudit(t, audit.SystemErrorEvent(call.action), model.CategorySystem, model.SeverityCritical)
	}
	assert.Equal(t, "force_logout_system_error", audit.SystemErrorEvent(audit.ActionForceLogout))
}

func TestForceLogoutNotFound(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateEmployee(t, srv.db, "ADM001", model.RoleAdmin, "password1")
	admin := srv.login(t, "ADM001", "password1")

	resp := srv.do(t, http.MethodPost, "/api/admin/sessions/missing/force-logout", admin.token, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
	srv.requireAudit(t, audit.EventForceLogoutNotFound, model.CategoryAdmin, model.SeverityWarning)
}

func TestAuditLogsAndExport(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateEmployee(t, srv.db, "ADM001", model.RoleAdmin, "password1")
	admin := srv.login(t, "ADM001", "password1")
	srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"emp_id": "ADM001", "password": "nope"})

	resp := srv.do(t, http.MethodGet, "/api/admin/audit-logs?event_type=login_failed", admin.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	data := resp.json(t)["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "login_failed", data[0].(map[string]interface{})["event_type"])

	resp = srv.do(t, http.MethodGet, "/api/admin/audit-logs?since=yesterday", admin.token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = srv.do(t, http.MethodGet, "/api/admin/audit-logs/export", admin.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	csvBody := string(resp.body)
	assert.Contains(t, csvBody, "Timestamp (IST),Employee ID,Event Type,Category,Resource,Severity\n")
	assert.Contains(t, csvBody, "2024-03-01 14:30:00 IST,ADM001,login,authentication,session,info")
	srv.requireAudit(t, audit.EventAuditExport, model.CategoryAdmin, model.SeverityInfo)
}

func TestHealthAndNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	body := resp.json(t)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, params.ServiceName, body["service"])

	resp = srv.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
}
