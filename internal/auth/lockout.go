package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/khanghh/klms/internal/store"
	"github.com/khanghh/klms/params"
)

type loginAttempt struct {
	Failures    int       `json:"failures"`
	LockedUntil time.Time `json:"lockedUntil"`
}

// loginLockout counts failed logins per employee code and client address in shared storage.
type loginLockout struct {
	attempts store.Store[loginAttempt]
}

func attemptKey(empID, ip string) string {
	return strings.ToLower(empID) + "|" + ip
}

func (l *loginLockout) lockedUntil(empID, ip string, now time.Time) (time.Time, bool, error) {
	attempt, err := l.attempts.Get(attemptKey(empID, ip))
	if errors.Is(err, store.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return attempt.LockedUntil, now.Before(attempt.LockedUntil), nil
}

// registerFailure records a failed attempt and reports whether it triggered a lock.
func (l *loginLockout) registerFailure(empID, ip string, now time.Time) (bool, error) {
	key := attemptKey(empID, ip)
	attempt, err := l.attempts.Get(key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	attempt.Failures++
	locked := attempt.Failures >= params.LoginMaxFailures
	if locked {
		attempt.Failures = 0
		attempt.LockedUntil = now.Add(params.LoginFailureWindow)
	}
	return locked, l.attempts.Set(key, attempt, params.LoginFailureWindow)
}

func (l *loginLockout) reset(empID, ip string) error {
	return l.attempts.Delete(attemptKey(empID, ip))
}

func newLoginLockout(storage store.Storage) *loginLockout {
	return &loginLockout{
		attempts: store.New[loginAttempt](storage, params.LoginAttemptKeyPrefix),
	}
}
