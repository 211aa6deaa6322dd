package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/khanghh/klms/internal/common"
	"github.com/khanghh/klms/internal/token"
	"github.com/khanghh/klms/model"
	"github.com/khanghh/klms/params"
	"gorm.io/gorm"
)

type State int

const (
	StateActive State = iota
	StateExpired
	StateIdleTimedOut
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateIdleTimedOut:
		return "idle_timed_out"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// StateOf derives the lifecycle state of session at now. Absolute expiry takes precedence over idle timeout.
func StateOf(session *model.Session, now time.Time) State {
	if !session.IsActive {
		switch session.LogoutReason {
		case model.LogoutExpired:
			return StateExpired
		case model.LogoutTimeout:
			return StateIdleTimedOut
		}
		return StateTerminated
	}
	if now.After(session.ExpiresAt) {
		return StateExpired
	}
	if now.Sub(session.LastActivityAt) > params.IdleTimeout {
		return StateIdleTimedOut
	}
	return StateActive
}

type TokenVerifier interface {
	Verify(tokenStr string) (string, error)
}

type Manager struct {
	repo     SessionRepository
	verifier TokenVerifier
	now      func() time.Time
}

type Option func(*Manager)

// WithClock overrides the time source used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Create persists a new active session for the bearer token issued at login.
func (m *Manager) Create(ctx context.Context, employeeID, tokenStr, ip, userAgent string) (*model.Session, error) {
	now := m.now()
	session := &model.Session{
		EmployeeID:     employeeID,
		TokenHash:      common.HashToken(tokenStr),
		IPAddress:      ip,
		UserAgent:      userAgent,
		LastActivityAt: now,
		ExpiresAt:      now.Add(params.SessionLifetime),
		IsActive:       true,
	}
	if err := m.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// ValidateAndRefresh resolves tokenStr to its active session and stamps activity.
// Any invalidity cause is returned wrapped together with ErrSessionInvalid.
// Expired and idle sessions are terminated before returning, and the terminated session is returned alongside the error.
func (m *Manager) ValidateAndRefresh(ctx context.Context, tokenStr string) (*model.Session, error) {
	if tokenStr == "" {
		return nil, invalid(ErrTokenRejected)
	}
	session, err := m.repo.FindByTokenHash(ctx, common.HashToken(tokenStr))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid(ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if !session.IsActive {
		return nil, invalid(ErrSessionInactive)
	}

	employeeID, err := m.verifier.Verify(tokenStr)
	tokenExpired := errors.Is(err, token.ErrTokenExpired)
	if err != nil && !tokenExpired {
		return nil, invalid(ErrTokenRejected)
	}
	if employeeID != session.EmployeeID {
		return nil, invalid(ErrTokenRejected)
	}

	now := m.now()
	if tokenExpired || now.After(session.ExpiresAt) {
		if err := m.expire(ctx, session, model.LogoutExpired); err != nil {
			return nil, err
		}
		return session, invalid(ErrSessionExpired)
	}
	if now.Sub(session.LastActivityAt) > params.IdleTimeout {
		if err := m.expire(ctx, session, model.LogoutTimeout); err != nil {
			return nil, err
		}
		return session, invalid(ErrSessionIdle)
	}

	if _, err := m.repo.Touch(ctx, session.ID, now); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	if now.After(session.LastActivityAt) {
		session.LastActivityAt = now
	}
	return session, nil
}

func (m *Manager) expire(ctx context.Context, session *model.Session, reason model.LogoutReason) error {
	if _, err := m.repo.Deactivate(ctx, session.ID, reason); err != nil {
		return fmt.Errorf("terminate session: %w", err)
	}
	session.IsActive = false
	session.LogoutReason = reason
	return nil
}

// Terminate deactivates the session. Terminating an inactive or unknown session is a no-op.
func (m *Manager) Terminate(ctx context.Context, sessionID string, reason model.LogoutReason) error {
	if _, err := m.repo.Deactivate(ctx, sessionID, reason); err != nil {
		return fmt.Errorf("terminate session: %w", err)
	}
	return nil
}

// TerminateByToken deactivates the session bound to tokenStr and returns it.
// It returns ErrSessionNotFound when no session was ever created for the token.
func (m *Manager) TerminateByToken(ctx context.Context, tokenStr string, reason model.LogoutReason) (*model.Session, error) {
	session, err := m.repo.FindByTokenHash(ctx, common.HashToken(tokenStr))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if !session.IsActive {
		return session, nil
	}
	if err := m.expire(ctx, session, reason); err != nil {
		return nil, err
	}
	return session, nil
}

// TerminateAllForEmployee deactivates every active session owned by employeeID.
func (m *Manager) TerminateAllForEmployee(ctx context.Context, employeeID string, reason model.LogoutReason) (int64, error) {
	return m.terminateAll(ctx, m.repo, employeeID, reason)
}

// TerminateAllForEmployeeTx is TerminateAllForEmployee run inside tx, so the caller can commit
// it together with the employee change that triggered it.
func (m *Manager) TerminateAllForEmployeeTx(ctx context.Context, tx *gorm.DB, employeeID string, reason model.LogoutReason) (int64, error) {
	return m.terminateAll(ctx, m.repo.WithTx(tx), employeeID, reason)
}

func (m *Manager) terminateAll(ctx context.Context, repo SessionRepository, employeeID string, reason model.LogoutReason) (int64, error) {
	count, err := repo.DeactivateByEmployee(ctx, employeeID, reason)
	if err != nil {
		return 0, fmt.Errorf("terminate employee sessions: %w", err)
	}
	if count > 0 {
		slog.Info("Terminated employee sessions", "employeeID", employeeID, "reason", reason, "count", count)
	}
	return count, nil
}

// ForceLogout terminates another employee's session on behalf of an admin.
// actingSessionID is the admin's current session, which can only be ended through a normal logout.
func (m *Manager) ForceLogout(ctx context.Context, targetID, actingEmployeeID, actingSessionID string) (*model.Session, error) {
	target, err := m.repo.FindByID(ctx, targetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if target.ID == actingSessionID {
		return nil, ErrSelfSessionLogout
	}
	if !target.IsActive {
		return target, nil
	}
	if err := m.expire(ctx, target, model.LogoutAdminForced); err != nil {
		return nil, err
	}
	slog.Info("Session force logged out", "sessionID", target.ID, "employeeID", target.EmployeeID, "actingEmployeeID", actingEmployeeID)
	return target, nil
}

// ListActive returns sessions still flagged active, with their employees preloaded.
// Rows past a threshold but not yet visited by validation are filtered out.
func (m *Manager) ListActive(ctx context.Context) ([]*model.Session, error) {
	sessions, err := m.repo.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	now := m.now()
	active := sessions[:0]
	for _, s := range sessions {
		if StateOf(s, now) == StateActive {
			active = append(active, s)
		}
	}
	return active, nil
}

// State reports the lifecycle state of session at the manager's current time.
func (m *Manager) State(session *model.Session) State {
	return StateOf(session, m.now())
}

func NewManager(repo SessionRepository, verifier TokenVerifier, opts ...Option) *Manager {
	m := &Manager{
		repo:     repo,
		verifier: verifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
