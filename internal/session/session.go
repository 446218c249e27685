// Package session tracks who is logged in to the finance API.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/finboard/internal/api"
	"github.com/theirongolddev/finboard/internal/model"
)

// State is the authentication lifecycle position.
type State int

const (
	StateUnknown State = iota
	StateChecking
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

var (
	// ErrSessionExpired is recorded when a persisted token is rejected at startup.
	ErrSessionExpired = errors.New("session: expired")
	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("session: invalid credentials")
	// ErrLogoutFailed is returned when the backend logout call fails.
	// Local state is cleared regardless.
	ErrLogoutFailed = errors.New("session: logout failed")
)

// User-facing messages for each failure.
const (
	MsgSessionExpired     = "Session expired. Please log in again."
	MsgInvalidCredentials = "Invalid credentials. Please try again."
	MsgLogoutFailed       = "Failed to log out. Please try again."
)

// Authenticator is the slice of the API client the session needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (api.AuthResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (api.User, error)
	SetToken(token string)
}

// TokenStore persists the auth token between runs.
type TokenStore interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	ClearToken() error
}

// Session holds the current user. It is safe for concurrent use.
type Session struct {
	auth   Authenticator
	tokens TokenStore
	log    zerolog.Logger

	mu       sync.RWMutex
	state    State
	user     *model.User
	message  string
	onChange []func(State)
}

// New creates a session in StateUnknown.
func New(auth Authenticator, tokens TokenStore, log zerolog.Logger) *Session {
	return &Session{
		auth:   auth,
		tokens: tokens,
		log:    log.With().Str("component", "session").Logger(),
	}
}

// OnChange registers fn to be called after every state transition.
func (s *Session) OnChange(fn func(State)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Init validates any persisted token. It never fails: a rejected token
// is cleared, the expiry message is set, and the session ends anonymous.
func (s *Session) Init(ctx context.Context) State {
	token, err := s.tokens.LoadToken()
	if err != nil {
		s.log.Warn().Err(err).Msg("loading persisted token")
	}
	if token == "" {
		s.transition(StateAnonymous, nil, "")
		return StateAnonymous
	}

	s.auth.SetToken(token)
	s.transition(StateChecking, nil, "")

	u, err := s.auth.CurrentUser(ctx)
	if err != nil {
		s.log.Info().Err(err).Msg("persisted token rejected")
		s.auth.SetToken("")
		if cerr := s.tokens.ClearToken(); cerr != nil {
			s.log.Warn().Err(cerr).Msg("clearing token")
		}
		s.transition(StateAnonymous, nil, MsgSessionExpired)
		return StateAnonymous
	}

	user := toUser(u)
	s.transition(StateAuthenticated, &user, "")
	return StateAuthenticated
}

// Login exchanges credentials for a token and persists it.
func (s *Session) Login(ctx context.Context, username, password string) error {
	resp, err := s.auth.Login(ctx, username, password)
	if err != nil {
		s.mu.Lock()
		s.message = MsgInvalidCredentials
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	return s.Adopt(resp)
}

// Adopt installs the token and user from a login or signup response.
func (s *Session) Adopt(resp api.AuthResponse) error {
	if resp.Token == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidCredentials)
	}
	s.auth.SetToken(resp.Token)
	if err := s.tokens.SaveToken(resp.Token); err != nil {
		s.log.Warn().Err(err).Msg("persisting token")
	}
	user := toUser(resp.User)
	s.transition(StateAuthenticated, &user, "")
	return nil
}

// Logout clears the local session and tells the backend. A backend
// failure is reported but never keeps the user logged in locally.
func (s *Session) Logout(ctx context.Context) error {
	err := s.auth.Logout(ctx)
	s.auth.SetToken("")
	if cerr := s.tokens.ClearToken(); cerr != nil {
		s.log.Warn().Err(cerr).Msg("clearing token")
	}

	if err != nil {
		s.transition(StateAnonymous, nil, MsgLogoutFailed)
		return fmt.Errorf("%w: %w", ErrLogoutFailed, err)
	}
	s.transition(StateAnonymous, nil, "")
	return nil
}

// Expire drops a token the backend rejected mid-session. Unlike Logout
// it makes no request.
func (s *Session) Expire() {
	if s.State() != StateAuthenticated {
		return
	}
	s.auth.SetToken("")
	if err := s.tokens.ClearToken(); err != nil {
		s.log.Warn().Err(err).Msg("clearing token")
	}
	s.transition(StateAnonymous, nil, MsgSessionExpired)
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the logged-in user, if any.
func (s *Session) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool {
	return s.State() == StateAuthenticated
}

// Message returns the last user-facing error message, or "".
func (s *Session) Message() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.message
}

// ClearMessage dismisses the current message.
func (s *Session) ClearMessage() {
	s.mu.Lock()
	s.message = ""
	s.mu.Unlock()
}

func (s *Session) transition(next State, user *model.User, msg string) {
	s.mu.Lock()
	s.state = next
	s.user = user
	s.message = msg
	observers := slices.Clone(s.onChange)
	s.mu.Unlock()

	s.log.Debug().Stringer("state", next).Msg("session transition")
	for _, fn := range observers {
		fn(next)
	}
}

func toUser(u api.User) model.User {
	return model.User{ID: string(u.ID), Username: u.Username, Email: u.Email}
}
