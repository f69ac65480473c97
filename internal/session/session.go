// Package session holds the backend auth token for one user of the client.
//
// A Session is created once per process (CLI) or once per request (web client)
// and handed to every API call. Only login writes credentials; only logout and
// a detected 401 clear them.
package session

import (
	"errors"
	"strings"
	"sync"
)

var ErrNoToken = errors.New("session: token is empty")

type Credentials struct {
	Token    string `json:"token"`
	Username string `json:"username,omitempty"`
}

// Store persists credentials between runs or requests.
type Store interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Clear() error
}

type Session struct {
	mu    sync.RWMutex
	creds Credentials
	store Store
}

// New loads any saved credentials from store. A nil store keeps everything in memory.
func New(store Store) (*Session, error) {
	s := &Session{store: store}
	if store == nil {
		return s, nil
	}
	creds, err := store.Load()
	if err != nil {
		return nil, err
	}
	s.creds = creds
	return s, nil
}

// Anonymous returns an in-memory session with no credentials.
func Anonymous() *Session {
	return &Session{}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Token
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Username
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) SetCredentials(creds Credentials) error {
	creds.Token = strings.TrimSpace(creds.Token)
	if creds.Token == "" {
		return ErrNoToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Save(creds); err != nil {
			return err
		}
	}
	s.creds = creds
	return nil
}

// ClearCredentials forgets the token in memory even if the store fails.
func (s *Session) ClearCredentials() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	if s.store != nil {
		return s.store.Clear()
	}
	return nil
}
