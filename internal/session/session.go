// Package session keeps the portal's per-browser authentication state: the
// API token and the cached user profile issued at login.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Skotchmaster/quota_portal/internal/guard"
	"github.com/Skotchmaster/quota_portal/internal/models"
)

const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store persists session keys. Get returns "" with a nil error for a key
// that was never set or has been deleted.
type Store interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Set(ctx context.Context, sessionID string, values map[string]string) error
	Delete(ctx context.Context, sessionID string) error
}

// Session is the explicit session handle of one browser. It is safe for
// concurrent use and memoizes what it read from the store.
type Session struct {
	id    string
	store Store

	mu     sync.Mutex
	loaded bool
	token  string
	user   *models.User
}

func New(store Store, id string) *Session {
	return &Session{id: id, store: store}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Set(ctx context.Context, token string, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(ctx, s.id, map[string]string{KeyToken: token, KeyUser: string(raw)}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	u := user
	s.token, s.user, s.loaded = token, &u, true
	return nil
}

// Token satisfies apiclient.TokenSource.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return "", err
	}
	return s.token, nil
}

// User returns the cached profile or nil.
func (s *Session) User(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil && s.id != "" {
		if err := s.store.Delete(ctx, s.id); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
	}
	s.token, s.user, s.loaded = "", nil, true
	return nil
}

// Snapshot captures what the route guard needs.
func (s *Session) Snapshot(ctx context.Context) (guard.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return guard.Snapshot{}, err
	}
	snap := guard.Snapshot{Token: s.token}
	if s.user != nil {
		snap.Role = s.user.Role
	}
	return snap, nil
}

func (s *Session) loadLocked(ctx context.Context) error {
	if s.loaded || s.id == "" {
		return nil
	}

	token, err := s.store.Get(ctx, s.id, KeyToken)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	raw, err := s.store.Get(ctx, s.id, KeyUser)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	s.token = token
	s.user = nil
	if raw != "" {
		var u models.User
		// a corrupt profile is treated as absent
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			s.user = &u
		}
	}
	s.loaded = true
	return nil
}
