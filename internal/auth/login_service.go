package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/khanghh/klms/internal/audit"
	"github.com/khanghh/klms/internal/credential"
	"github.com/khanghh/klms/internal/employees"
	"github.com/khanghh/klms/internal/sessions"
	"github.com/khanghh/klms/internal/store"
	"github.com/khanghh/klms/internal/token"
	"github.com/khanghh/klms/model"
)

type LoginRequest struct {
	EmpID     string
	Password  string
	IP        string
	UserAgent string
}

type LoginResult struct {
	Employee *model.Employee
	Session  *model.Session
	Token    string
	// ExpiresAt is the absolute session expiry.
	ExpiresAt time.Time
}

type LogoutRequest struct {
	Token     string
	Reason    model.LogoutReason
	IP        string
	UserAgent string
}

type EmployeeLookup interface {
	GetByEmpID(ctx context.Context, empID string) (*model.Employee, error)
	RecordLogin(ctx context.Context, id string, at time.Time) error
}

type SessionStarter interface {
	Create(ctx context.Context, employeeID, tokenStr, ip, userAgent string) (*model.Session, error)
	TerminateByToken(ctx context.Context, tokenStr string, reason model.LogoutReason) (*model.Session, error)
}

type TokenIssuer interface {
	Issue(employeeID string) (*token.Token, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, ev audit.Event)
}

// decoyHash stands in for a stored hash when there is none to check, so rejecting an
// unknown or inactive employee costs the same bcrypt compare as a wrong password.
var decoyHash = sync.OnceValue(func() string {
	hash, err := credential.Hash("klms-decoy-password")
	if err != nil {
		panic(err)
	}
	return hash
})

type LoginService struct {
	employees EmployeeLookup
	sessions  SessionStarter
	issuer    TokenIssuer
	recorder  AuditRecorder
	lockout   *loginLockout
	verify    func(password, hash string) bool
	now       func() time.Time
}

func (s *LoginService) recordFailure(ctx context.Context, req LoginRequest, employee *model.Employee, reason string) {
	actor := audit.Actor{IP: req.IP, UserAgent: req.UserAgent}
	if employee != nil {
		actor.EmployeeID = employee.ID
	}
	slog.Info("Login failed", "empID", req.EmpID, "ip", req.IP, "reason", reason)
	s.recorder.Record(ctx, audit.Event{
		Actor:     actor,
		EventType: audit.EventLoginFailed,
		Category:  model.CategoryAuthentication,
		Severity:  model.SeverityWarning,
		Details:   map[string]interface{}{"emp_id": req.EmpID, "reason": reason},
	})

	locked, err := s.lockout.registerFailure(req.EmpID, req.IP, s.now())
	if err != nil {
		slog.Error("Failed to record login attempt", "empID", req.EmpID, "error", err)
		return
	}
	if locked {
		s.recordLocked(ctx, req, actor)
	}
}

func (s *LoginService) recordLocked(ctx context.Context, req LoginRequest, actor audit.Actor) {
	slog.Warn("Login locked", "empID", req.EmpID, "ip", req.IP)
	s.recorder.Record(ctx, audit.Event{
		Actor:     actor,
		EventType: audit.EventLoginLocked,
		Category:  model.CategorySecurity,
		Severity:  model.SeverityWarning,
		Details:   map[string]interface{}{"emp_id": req.EmpID},
	})
}

// Login verifies credentials and starts a session. The session row is durable before the token is returned.
// Every credential failure yields ErrInvalidCredentials regardless of cause.
func (s *LoginService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	req.EmpID = strings.TrimSpace(req.EmpID)
	if req.EmpID == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}

	_, locked, err := s.lockout.lockedUntil(req.EmpID, req.IP, s.now())
	if err != nil {
		slog.Error("Failed to read login attempts", "empID", req.EmpID, "error", err)
	}
	if locked {
		s.recordLocked(ctx, req, audit.Actor{IP: req.IP, UserAgent: req.UserAgent})
		return nil, ErrLoginLocked
	}

	employee, err := s.employees.GetByEmpID(ctx, req.EmpID)
	if errors.Is(err, employees.ErrEmployeeNotFound) {
		s.verify(req.Password, decoyHash())
		s.recordFailure(ctx, req, nil, "unknown_employee")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load employee: %w", err)
	}
	if !employee.IsActive {
		s.verify(req.Password, decoyHash())
		s.recordFailure(ctx, req, employee, "inactive")
		return nil, ErrInvalidCredentials
	}
	if !s.verify(req.Password, employee.PasswordHash) {
		s.recordFailure(ctx, req, employee, "bad_password")
		return nil, ErrInvalidCredentials
	}

	tok, err := s.issuer.Issue(employee.ID)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.Create(ctx, employee.ID, tok.Value, req.IP, req.UserAgent)
	if err != nil {
		return nil, err
	}

	if err := s.lockout.reset(req.EmpID, req.IP); err != nil {
		slog.Warn("Failed to reset login attempts", "empID", req.EmpID, "error", err)
	}
	loginAt := s.now()
	if err := s.employees.RecordLogin(ctx, employee.ID, loginAt); err != nil {
		slog.Warn("Failed to stamp last login", "employeeID", employee.ID, "error", err)
	} else {
		employee.LastLoginAt = &loginAt
	}

	s.recorder.Record(ctx, audit.Event{
		Actor: audit.Actor{
			EmployeeID: employee.ID,
			SessionID:  session.ID,
			IP:         req.IP,
			UserAgent:  req.UserAgent,
		},
		EventType:    audit.EventLogin,
		Category:     model.CategoryAuthentication,
		Severity:     model.SeverityInfo,
		ResourceType: audit.ResourceSession,
		ResourceID:   session.ID,
	})
	return &LoginResult{
		Employee:  employee,
		Session:   session,
		Token:     tok.Value,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Logout terminates the session bound to the token. Unknown or already ended sessions succeed silently.
func (s *LoginService) Logout(ctx context.Context, req LogoutRequest) error {
	switch req.Reason {
	case "":
		req.Reason = model.LogoutManual
	case model.LogoutManual, model.LogoutTimeout:
	default:
		return ErrInvalidReason
	}

	session, err := s.sessions.TerminateByToken(ctx, req.Token, req.Reason)
	if errors.Is(err, sessions.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Event{
		Actor: audit.Actor{
			EmployeeID: session.EmployeeID,
			SessionID:  session.ID,
			IP:         req.IP,
			UserAgent:  req.UserAgent,
		},
		EventType:    audit.EventLogout,
		Category:     model.CategoryAuthentication,
		Severity:     model.SeverityInfo,
		ResourceType: audit.ResourceSession,
		ResourceID:   session.ID,
		Details:      map[string]interface{}{"reason": req.Reason},
	})
	return nil
}

type LoginOption func(*LoginService)

func WithClock(now func() time.Time) LoginOption {
	return func(s *LoginService) {
		s.now = now
	}
}

// WithPasswordVerifier replaces the bcrypt password check.
func WithPasswordVerifier(verify func(password, hash string) bool) LoginOption {
	return func(s *LoginService) {
		s.verify = verify
	}
}

func NewLoginService(
	employees EmployeeLookup,
	sessions SessionStarter,
	issuer TokenIssuer,
	recorder AuditRecorder,
	storage store.Storage,
	opts ...LoginOption) *LoginService {
	s := &LoginService{
		employees: employees,
		sessions:  sessions,
		issuer:    issuer,
		recorder:  recorder,
		lockout:   newLoginLockout(storage),
		verify:    credential.Verify,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
