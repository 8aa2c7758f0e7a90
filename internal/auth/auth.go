// Package auth holds the signed-in user and the providers that produce one.
package auth

import (
	"context"
	"strings"
	"sync"

	"jarvis/internal/session"
)

type Provider interface {
	// Current returns the signed-in user or nil.
	Current(ctx context.Context) *session.User
	SignIn(ctx context.Context, email, password string) (*session.User, error)
	SignUp(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
}

// Error carries the message shown on the login prompt and the cause.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func friendlyErr(raw string, cause error) *Error {
	return &Error{Message: Friendly(raw), Err: cause}
}

// Friendly maps raw auth service messages to login prompt text. Unknown
// messages are returned as they are.
func Friendly(raw string) string {
	if raw == "" {
		return "An unknown error occurred. Please try again."
	}

	msg := strings.ToLower(raw)
	switch {
	case containsAny(msg, "invalid login credentials", "invalid email or password"):
		return "Incorrect email or passcode. Please try again."
	case strings.Contains(msg, "email not confirmed"):
		return "Email not verified. Please check your inbox and click the confirmation link."
	case containsAny(msg, "user already registered", "already been registered"):
		return "This email is already registered. Try logging in instead."
	case strings.Contains(msg, "password should be at least"):
		return "Passcode must be at least 6 characters."
	case containsAny(msg, "invalid api", "apikey", "api key"):
		return "System configuration error. Please contact the administrator."
	case containsAny(msg, "rate limit", "too many requests"):
		return "Too many attempts. Please wait a moment and try again."
	case containsAny(msg, "network", "fetch"):
		return "Network error. Please check your connection."
	default:
		return raw
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Static signs in a fixed user from configuration. Credentials are only
// checked when the configured user has an email.
type Static struct {
	mu      sync.Mutex
	user    session.User
	current *session.User
}

// NewStatic starts signed in when signedIn is set.
func NewStatic(u session.User, signedIn bool) *Static {
	s := &Static{user: u}
	if signedIn {
		cp := u
		s.current = &cp
	}
	return s
}

func (s *Static) Current(context.Context) *session.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

func (s *Static) SignIn(_ context.Context, email, _ string) (*session.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user.Email != "" && !strings.EqualFold(s.user.Email, strings.TrimSpace(email)) {
		return nil, friendlyErr("Invalid login credentials", nil)
	}
	cp := s.user
	s.current = &cp
	out := cp
	return &out, nil
}

func (s *Static) SignUp(context.Context, string, string) error {
	return friendlyErr("User already registered", nil)
}

func (s *Static) SignOut(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	return nil
}
