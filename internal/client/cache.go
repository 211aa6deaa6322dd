package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/khanghh/klms/model"
)

// Signal is a user interaction that counts as session activity.
type Signal string

const (
	SignalPointer Signal = "pointer"
	SignalKey     Signal = "key"
	SignalScroll  Signal = "scroll"
	SignalTouch   Signal = "touch"
)

func (s Signal) Valid() bool {
	switch s {
	case SignalPointer, SignalKey, SignalScroll, SignalTouch:
		return true
	}
	return false
}

// SessionServer is the server side of the session, normally a *Client.
type SessionServer interface {
	Logout(ctx context.Context, token string, reason model.LogoutReason) error
	Validate(ctx context.Context, token string) (bool, error)
}

type Timer interface {
	Stop() bool
}

type TimerFunc func(d time.Duration, f func()) Timer

func afterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type CacheOption func(*SessionCache)

func WithClock(now func() time.Time) CacheOption {
	return func(c *SessionCache) {
		c.now = now
	}
}

func WithTimerFunc(fn TimerFunc) CacheOption {
	return func(c *SessionCache) {
		c.afterFunc = fn
	}
}

// WithOnLogout sets the callback run whenever the cached session ends, locally or remotely.
func WithOnLogout(fn func(reason model.LogoutReason)) CacheOption {
	return func(c *SessionCache) {
		c.onLogout = fn
	}
}

// SessionCache mirrors the server session locally and enforces the same idle and absolute
// limits so an idle client logs out without waiting for a round trip. The server stays authoritative.
type SessionCache struct {
	mu        sync.Mutex
	server    SessionServer
	store     EnvelopeStore
	env       *Envelope
	timer     Timer
	gen       uint64
	now       func() time.Time
	afterFunc TimerFunc
	onLogout  func(reason model.LogoutReason)
}

func (c *SessionCache) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *SessionCache) armTimerLocked() {
	c.stopTimerLocked()
	if c.env == nil {
		return
	}
	gen := c.gen
	delay := c.env.Deadline().Sub(c.now())
	if delay < 0 {
		delay = 0
	}
	c.timer = c.afterFunc(delay, func() { c.fire(gen) })
}

// clearLocked drops the envelope and returns the token it held.
func (c *SessionCache) clearLocked() string {
	c.stopTimerLocked()
	if c.env == nil {
		return ""
	}
	token := c.env.Token
	c.env = nil
	if err := c.store.Clear(); err != nil {
		slog.Warn("Failed to clear session envelope", "error", err)
	}
	return token
}

func (c *SessionCache) notify(reason model.LogoutReason) {
	if c.onLogout != nil {
		c.onLogout(reason)
	}
}

func (c *SessionCache) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.env == nil {
		c.mu.Unlock()
		return
	}
	reason := c.env.EndReason(c.now())
	if reason == "" {
		c.armTimerLocked()
		c.mu.Unlock()
		return
	}
	token := c.clearLocked()
	c.mu.Unlock()

	slog.Info("Session ended locally", "reason", reason)
	if err := c.server.Logout(context.Background(), token, model.LogoutTimeout); err != nil {
		slog.Warn("Server logout after local timeout failed", "error", err)
	}
	c.notify(reason)
}

// Establish replaces any cached session with env and starts its idle timer.
func (c *SessionCache) Establish(env *Envelope) error {
	if env == nil || env.Token == "" {
		return errors.New("empty session envelope")
	}
	cp := *env
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Save(&cp); err != nil {
		return fmt.Errorf("persist session envelope: %w", err)
	}
	c.env = &cp
	c.armTimerLocked()
	return nil
}

// Current returns a copy of the cached envelope if it is still valid by local policy.
// A lapsed envelope is cleared and reported through the logout callback.
func (c *SessionCache) Current() (*Envelope, bool) {
	c.mu.Lock()
	if c.env == nil {
		c.mu.Unlock()
		return nil, false
	}
	reason := c.env.EndReason(c.now())
	if reason != "" {
		c.clearLocked()
		c.mu.Unlock()
		c.notify(reason)
		return nil, false
	}
	cp := *c.env
	c.mu.Unlock()
	return &cp, true
}

// Touch records an interaction signal as activity and restarts the idle timer.
// It returns false when there is no live session to refresh.
func (c *SessionCache) Touch(signal Signal) bool {
	if !signal.Valid() {
		return false
	}
	c.mu.Lock()
	if c.env == nil {
		c.mu.Unlock()
		return false
	}
	now := c.now()
	if reason := c.env.EndReason(now); reason != "" {
		c.clearLocked()
		c.mu.Unlock()
		c.notify(reason)
		return false
	}
	if now.After(c.env.LastActivityAt) {
		c.env.LastActivityAt = now
	}
	if err := c.store.Save(c.env); err != nil {
		slog.Warn("Failed to persist session envelope", "error", err)
	}
	c.armTimerLocked()
	c.mu.Unlock()
	return true
}

// Logout ends the session on the server and clears it locally. The local state is
// cleared even when the server call fails.
func (c *SessionCache) Logout(ctx context.Context, reason model.LogoutReason) error {
	c.mu.Lock()
	token := c.clearLocked()
	c.mu.Unlock()
	if token == "" {
		return nil
	}
	if reason == "" {
		reason = model.LogoutManual
	}
	err := c.server.Logout(ctx, token, reason)
	c.notify(reason)
	return err
}

// Revalidate confirms the session with the server. A rejected session is logged out locally with reason timeout.
func (c *SessionCache) Revalidate(ctx context.Context) (bool, error) {
	env, ok := c.Current()
	if !ok {
		return false, nil
	}
	valid, err := c.server.Validate(ctx, env.Token)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	if c.env == nil || c.env.Token != env.Token {
		c.mu.Unlock()
		return false, nil
	}
	if !valid {
		c.clearLocked()
		c.mu.Unlock()
		c.notify(model.LogoutTimeout)
		return false, nil
	}
	if now := c.now(); now.After(c.env.LastActivityAt) {
		c.env.LastActivityAt = now
	}
	if err := c.store.Save(c.env); err != nil {
		slog.Warn("Failed to persist session envelope", "error", err)
	}
	c.armTimerLocked()
	c.mu.Unlock()
	return true, nil
}

// NewSessionCache restores any envelope persisted in store. A restored envelope that has
// already lapsed is discarded.
func NewSessionCache(server SessionServer, store EnvelopeStore, opts ...CacheOption) (*SessionCache, error) {
	c := &SessionCache{
		server:    server,
		store:     store,
		now:       time.Now,
		afterFunc: afterFunc,
	}
	for _, opt := range opts {
		opt(c)
	}

	env, err := store.Load()
	if errors.Is(err, ErrNoEnvelope) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if env.EndReason(c.now()) != "" {
		if err := store.Clear(); err != nil {
			return nil, err
		}
		return c, nil
	}
	c.env = env
	c.armTimerLocked()
	return c, nil
}

// Close stops the idle timer without touching the session.
func (c *SessionCache) Close() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.mu.Unlock()
}
