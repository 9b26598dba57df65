package client

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Session is the logged in identity kept between CLI runs
type Session struct {
	Token string `yaml:"token"`
	User  User   `yaml:"user"`
}

// SessionStore holds the current session in memory and mirrors it to a
// YAML file so later invocations stay logged in
type SessionStore struct {
	path string

	mu       sync.RWMutex
	current  *Session
	onLogout []func()
}

// OpenSessionStore loads the session file at path. A missing file means
// nobody is logged in.
func OpenSessionStore(path string) (*SessionStore, error) {
	s := &SessionStore{path: path}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := yaml.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	if sess.Token != "" {
		s.current = &sess
	}
	return s, nil
}

// Credential satisfies CredentialProvider
func (s *SessionStore) Credential() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return "", false
	}
	return s.current.Token, true
}

// Current returns a copy of the active session
func (s *SessionStore) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Save replaces the session and writes it to disk
func (s *SessionStore) Save(sess Session) error {
	raw, err := yaml.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if s.path != "" {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
		if err := os.WriteFile(s.path, raw, 0o600); err != nil {
			return fmt.Errorf("write session: %w", err)
		}
	}
	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
	return nil
}

// Clear forgets the session and runs the logout hooks
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	s.current = nil
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	var err error
	if s.path != "" {
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = fmt.Errorf("remove session: %w", rmErr)
		}
	}
	for _, fn := range hooks {
		fn()
	}
	return err
}

// OnLogout registers fn to run after every Clear
func (s *SessionStore) OnLogout(fn func()) {
	s.mu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.mu.Unlock()
}

// Login authenticates through c and keeps the session only on success
func (s *SessionStore) Login(ctx context.Context, c *Client, email, password string) (Session, error) {
	res, err := c.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	sess := Session{Token: res.Token, User: res.User}
	if err := s.Save(sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Logout clears the session
func (s *SessionStore) Logout() error {
	return s.Clear()
}
