package session

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finboard/internal/api"
)

type fakeAuth struct {
	token      string
	userErr    error
	loginErr   error
	logoutErr  error
	userCalls  int
	logoutHits int
}

func (f *fakeAuth) Login(_ context.Context, username, _ string) (api.AuthResponse, error) {
	if f.loginErr != nil {
		return api.AuthResponse{}, f.loginErr
	}
	return api.AuthResponse{Token: "tok-" + username, User: api.User{ID: "1", Username: username}}, nil
}

func (f *fakeAuth) Logout(context.Context) error {
	f.logoutHits++
	return f.logoutErr
}

func (f *fakeAuth) CurrentUser(context.Context) (api.User, error) {
	f.userCalls++
	if f.userErr != nil {
		return api.User{}, f.userErr
	}
	return api.User{ID: "1", Username: "ada", Email: "ada@example.com"}, nil
}

func (f *fakeAuth) SetToken(token string) { f.token = token }

type memTokens struct{ token string }

func (m *memTokens) LoadToken() (string, error) { return m.token, nil }
func (m *memTokens) SaveToken(t string) error   { m.token = t; return nil }
func (m *memTokens) ClearToken() error          { m.token = ""; return nil }

var errRejected = &api.RequestError{Method: "GET", Path: api.PathCurrentUser, Status: 401}

func TestInit_NoTokenIsAnonymousWithoutNetwork(t *testing.T) {
	auth := &fakeAuth{}
	s := New(auth, &memTokens{}, zerolog.Nop())

	assert.Equal(t, StateUnknown, s.State())
	assert.Equal(t, StateAnonymous, s.Init(context.Background()))
	assert.Zero(t, auth.userCalls)
	assert.Empty(t, s.Message())
}

func TestInit_ValidTokenAuthenticates(t *testing.T) {
	auth := &fakeAuth{}
	tokens := &memTokens{token: "persisted"}
	s := New(auth, tokens, zerolog.Nop())

	var seen []State
	s.OnChange(func(st State) { seen = append(seen, st) })

	assert.Equal(t, StateAuthenticated, s.Init(context.Background()))
	assert.Equal(t, []State{StateChecking, StateAuthenticated}, seen)
	assert.Equal(t, "persisted", auth.token)
	u, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "ada", u.Username)
}

func TestInit_RejectedTokenEndsAnonymous(t *testing.T) {
	auth := &fakeAuth{userErr: errRejected}
	tokens := &memTokens{token: "stale"}
	s := New(auth, tokens, zerolog.Nop())

	st := s.Init(context.Background())

	assert.Equal(t, StateAnonymous, st)
	assert.Empty(t, tokens.token)
	assert.Empty(t, auth.token)
	assert.Equal(t, MsgSessionExpired, s.Message())
	_, ok := s.User()
	assert.False(t, ok)
}

func TestLogin(t *testing.T) {
	auth := &fakeAuth{loginErr: errors.New("400")}
	tokens := &memTokens{}
	s := New(auth, tokens, zerolog.Nop())
	s.Init(context.Background())

	err := s.Login(context.Background(), "ada", "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, MsgInvalidCredentials, s.Message())
	assert.Equal(t, StateAnonymous, s.State())

	auth.loginErr = nil
	require.NoError(t, s.Login(context.Background(), "ada", "good"))
	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, "tok-ada", tokens.token)
	assert.Equal(t, "tok-ada", auth.token)
	assert.Empty(t, s.Message())
}

func TestLogout_ClearsLocalStateEvenOnFailure(t *testing.T) {
	auth := &fakeAuth{logoutErr: errors.New("boom")}
	tokens := &memTokens{token: "live"}
	s := New(auth, tokens, zerolog.Nop())
	require.Equal(t, StateAuthenticated, s.Init(context.Background()))

	err := s.Logout(context.Background())

	assert.ErrorIs(t, err, ErrLogoutFailed)
	assert.Equal(t, StateAnonymous, s.State())
	assert.Empty(t, tokens.token)
	assert.Empty(t, auth.token)
	assert.Equal(t, MsgLogoutFailed, s.Message())
	assert.Equal(t, 1, auth.logoutHits)

	s.ClearMessage()
	assert.Empty(t, s.Message())
}

func TestLogout_Success(t *testing.T) {
	auth := &fakeAuth{}
	tokens := &memTokens{token: "live"}
	s := New(auth, tokens, zerolog.Nop())
	s.Init(context.Background())

	require.NoError(t, s.Logout(context.Background()))
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Message())
}

func TestExpire(t *testing.T) {
	auth := &fakeAuth{}
	tokens := &memTokens{token: "live"}
	s := New(auth, tokens, zerolog.Nop())
	require.Equal(t, StateAuthenticated, s.Init(context.Background()))

	s.Expire()

	assert.Equal(t, StateAnonymous, s.State())
	assert.Empty(t, tokens.token)
	assert.Empty(t, auth.token)
	assert.Equal(t, MsgSessionExpired, s.Message())
	assert.Zero(t, auth.logoutHits)

	s.ClearMessage()
	s.Expire()
	assert.Empty(t, s.Message(), "expiring an anonymous session is a no-op")
}
