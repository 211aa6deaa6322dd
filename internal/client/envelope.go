package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/khanghh/klms/model"
	"github.com/khanghh/klms/params"
)

var ErrNoEnvelope = errors.New("no session envelope")

// Envelope is the client's copy of an established session.
type Envelope struct {
	Employee       *model.Employee `json:"employee"`
	SessionID      string          `json:"sessionId"`
	Token          string          `json:"token"`
	ExpiresAt      time.Time       `json:"expiresAt"`
	LastActivityAt time.Time       `json:"lastActivityAt"`
}

// EndReason reports why the envelope is no longer usable at now, or "" while it is.
// Absolute expiry wins over idle timeout, matching the server.
func (e *Envelope) EndReason(now time.Time) model.LogoutReason {
	if now.After(e.ExpiresAt) {
		return model.LogoutExpired
	}
	if now.Sub(e.LastActivityAt) > params.IdleTimeout {
		return model.LogoutTimeout
	}
	return ""
}

// Deadline is the instant the envelope lapses if no further activity is seen.
func (e *Envelope) Deadline() time.Time {
	idle := e.LastActivityAt.Add(params.IdleTimeout)
	if e.ExpiresAt.Before(idle) {
		return e.ExpiresAt
	}
	return idle
}

type EnvelopeStore interface {
	Load() (*Envelope, error)
	Save(env *Envelope) error
	Clear() error
}

// FileEnvelopeStore persists the envelope as a JSON file readable only by its owner.
type FileEnvelopeStore struct {
	path string
}

func (s *FileEnvelopeStore) Load() (*Envelope, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoEnvelope
	}
	if err != nil {
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope %s: %w", s.path, err)
	}
	return &env, nil
}

func (s *FileEnvelopeStore) Save(env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileEnvelopeStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func NewFileEnvelopeStore(path string) *FileEnvelopeStore {
	return &FileEnvelopeStore{path: path}
}
