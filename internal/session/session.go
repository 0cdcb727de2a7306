// Package session holds the client-side session: the bearer token, which is
// persisted through a TokenStore, and the current-user profile, which lives in
// memory only. A Session is owned by the application root and passed
// explicitly to the API client and the route guard.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"clubhire.org/internal/audit"
	"clubhire.org/internal/roles"
)

// LoginPath is where Logout navigates.
const LoginPath = "/login"

// ErrEmptyToken is returned by SetToken for a blank token.
var ErrEmptyToken = errors.New("session: empty token")

// Authenticator performs the two backend calls a login needs.
type Authenticator interface {
	Login(ctx context.Context, phone, password string) (LoginResult, error)
	Me(ctx context.Context) (Profile, error)
}

// Navigator moves the user interface to another page.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) { f(path) }

// Session is safe for concurrent use.
type Session struct {
	mu      sync.RWMutex
	token   string
	profile *Profile

	store TokenStore
	nav   Navigator
}

// Option configures a Session.
type Option func(*Session)

// WithNavigator sets the navigator Logout uses to reach the login page.
func WithNavigator(nav Navigator) Option {
	return func(s *Session) {
		s.nav = nav
	}
}

// New creates an empty session backed by store. A nil store keeps the token in memory only.
func New(store TokenStore, opts ...Option) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	s := &Session{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads a previously persisted token into memory.
func (s *Session) Restore(ctx context.Context) error {
	tok, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("session: load token: %w", err)
	}
	s.mu.Lock()
	s.token = strings.TrimSpace(tok)
	s.mu.Unlock()
	return nil
}

// Token returns the current bearer token or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is present. A stale profile without
// a token does not count.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// SetToken persists t and makes it visible to subsequent requests before returning.
func (s *Session) SetToken(ctx context.Context, t string) error {
	t = strings.TrimSpace(t)
	if t == "" {
		return ErrEmptyToken
	}
	if err := s.store.Save(ctx, t); err != nil {
		return fmt.Errorf("session: save token: %w", err)
	}
	s.mu.Lock()
	s.token = t
	s.mu.Unlock()
	return nil
}

// Profile returns a copy of the cached profile, or nil.
func (s *Session) Profile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	p.Roles = append([]RoleRecord(nil), s.profile.Roles...)
	return &p
}

// SetProfile caches p in memory. It is never persisted.
func (s *Session) SetProfile(p Profile) {
	s.mu.Lock()
	s.profile = &p
	s.mu.Unlock()
}

// HasProfile reports whether a profile is cached.
func (s *Session) HasProfile() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile != nil
}

// Roles returns the normalized role set of the cached profile.
func (s *Session) Roles() roles.Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.RoleSet()
}

// PrimaryRole is the highest-priority recognized role (admin > interviewer > student).
func (s *Session) PrimaryRole() (roles.Role, bool) {
	return s.Roles().Primary()
}

// HasRole reports whether the cached profile holds r.
func (s *Session) HasRole(r roles.Role) bool {
	return s.Roles().Has(r)
}

// HasAnyRole reports whether the cached profile holds any of rs.
func (s *Session) HasAnyRole(rs ...roles.Role) bool {
	return s.Roles().HasAny(rs...)
}

// Login exchanges credentials for a token, stores it, then fetches and caches
// the profile. If the profile fetch fails the token stays set and the error is
// returned; the route guard refetches the profile on the next navigation.
func (s *Session) Login(ctx context.Context, authn Authenticator, phone, password string) (LoginResult, error) {
	res, err := authn.Login(ctx, phone, password)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.SetToken(ctx, res.AccessToken); err != nil {
		return LoginResult{}, err
	}
	profile, err := authn.Me(ctx)
	if err != nil {
		return res, err
	}
	s.SetProfile(profile)

	role, _ := s.PrimaryRole()
	_ = audit.LogEvent(audit.WithActor(ctx, fmt.Sprint(profile.ID)), "session.login", map[string]any{
		"role": role.String(),
	})
	return res, nil
}

// Logout clears the session and navigates to the login page.
func (s *Session) Logout(ctx context.Context) error {
	err := s.Clear(ctx)
	_ = audit.LogEvent(ctx, "session.logout", nil)
	if s.nav != nil {
		s.nav.Navigate(LoginPath)
	}
	return err
}

// Expire clears the session after the backend rejected the token.
func (s *Session) Expire(ctx context.Context) error {
	err := s.Clear(ctx)
	_ = audit.LogEvent(ctx, "session.expired", nil)
	return err
}

// Clear drops token and profile from memory and durable storage.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.profile = nil
	s.mu.Unlock()
	if err := s.store.Delete(ctx); err != nil {
		return fmt.Errorf("session: delete token: %w", err)
	}
	return nil
}
