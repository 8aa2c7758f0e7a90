package auth

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"jarvis/internal/session"
)

// Supabase authenticates against the GoTrue endpoints of a Supabase project
// with the password grant.
type Supabase struct {
	client gotrue.Client

	mu      sync.Mutex
	current *session.User
}

func NewSupabase(projectURL, apiKey string) *Supabase {
	base := strings.TrimRight(projectURL, "/") + "/auth/v1"
	return &Supabase{client: gotrue.New("", apiKey).WithCustomGoTrueURL(base)}
}

// errorReply covers the shapes GoTrue uses across versions.
type errorReply struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorReply) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// gotrue-go reports non-2xx replies as "response status code N: body".
var statusErr = regexp.MustCompile(`(?s)^response status code (\d+)(?::\s*(.*))?$`)

// classify turns a gotrue-go error into the login prompt error.
func classify(op string, err error) *Error {
	m := statusErr.FindStringSubmatch(err.Error())
	if m == nil {
		return friendlyErr("network request failed", err)
	}

	status, _ := strconv.Atoi(m[1])
	var e errorReply
	_ = json.Unmarshal([]byte(m[2]), &e)
	text := e.text()
	if text == "" && status == http.StatusTooManyRequests {
		text = "Too many requests"
	}
	return friendlyErr(text, fmt.Errorf("auth %s: status %d", op, status))
}

func (s *Supabase) Current(context.Context) *session.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

func (s *Supabase) SignIn(ctx context.Context, email, password string) (*session.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, friendlyErr("network request cancelled", err)
	}
	tok, err := s.client.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, classify("token", err)
	}

	u := session.User{
		ID:          tok.User.ID.String(),
		Email:       tok.User.Email,
		AccessToken: tok.AccessToken,
	}

	s.mu.Lock()
	s.current = &u
	s.mu.Unlock()

	log.Info("Signed in", "user", u.ID)
	out := u
	return &out, nil
}

func (s *Supabase) SignUp(ctx context.Context, email, password string) error {
	if err := ctx.Err(); err != nil {
		return friendlyErr("network request cancelled", err)
	}
	_, err := s.client.Signup(types.SignupRequest{Email: email, Password: password})
	if err != nil {
		return classify("signup", err)
	}
	return nil
}

// SignOut always drops the local session; the remote logout is best effort.
func (s *Supabase) SignOut(context.Context) error {
	s.mu.Lock()
	cur := s.current
	s.current = nil
	s.mu.Unlock()

	if cur == nil || cur.AccessToken == "" {
		return nil
	}
	if err := s.client.WithToken(cur.AccessToken).Logout(); err != nil {
		log.Warn("Remote logout failed", "err", err)
		return classify("logout", err)
	}
	return nil
}
