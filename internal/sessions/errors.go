package sessions

import "errors"

var (
	ErrSessionInvalid    = errors.New("session invalid")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionInactive   = errors.New("session inactive")
	ErrSessionExpired    = errors.New("session expired")
	ErrSessionIdle       = errors.New("session idle timeout")
	ErrTokenRejected     = errors.New("token rejected")
	ErrSelfSessionLogout = errors.New("cannot force logout own session")
)

// invalid tags cause as a SessionInvalid failure. Both sentinels match with errors.Is.
func invalid(cause error) error {
	return errors.Join(ErrSessionInvalid, cause)
}
