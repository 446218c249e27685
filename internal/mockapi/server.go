// Package mockapi serves an in-memory copy of the finance backend's REST
// contract. It backs `finboard mock-api` and the end-to-end tests.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Demo credentials seeded into every server.
const (
	DemoUser     = "demo"
	DemoPassword = "demo-password"
	DemoEmail    = "demo@example.com"
)

// DefaultAddr is where `finboard mock-api` listens.
const DefaultAddr = "127.0.0.1:8000"

const userKey = "mockapi.user"

// Options configures a Server.
type Options struct {
	// Now anchors the seeded data and the summary window. Defaults to time.Now.
	Now func() time.Time
	// Latency delays every response, for exercising loading states.
	Latency time.Duration
	Log     zerolog.Logger
}

// Server is a mutex-guarded fixture backend.
type Server struct {
	mu sync.RWMutex

	now     func() time.Time
	latency time.Duration
	log     zerolog.Logger
	engine  *gin.Engine

	categories []category
	txs        []transaction
	budgets    []budget
	users      map[string]*user
	tokens     map[string]string

	nextCategory, nextTx, nextUser int
}

// New creates a server seeded with a year of sample activity.
func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		now:     opts.Now,
		latency: opts.Latency,
		log:     opts.Log.With().Str("component", "mockapi").Logger(),
		users:   make(map[string]*user),
		tokens:  make(map[string]string),
	}
	s.seed(opts.Now())
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler, mounted under /api/.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())
	if s.latency > 0 {
		r.Use(func(c *gin.Context) {
			select {
			case <-time.After(s.latency):
			case <-c.Request.Context().Done():
			}
			c.Next()
		})
	}

	base := r.Group("/api")
	base.POST("/auth/login/", s.login)
	base.POST("/auth/signup/", s.signup)

	authed := base.Group("", s.requireToken)
	authed.POST("/auth/logout/", s.logout)
	authed.GET("/auth/user/", s.currentUser)

	authed.GET("/transactions/", s.listTransactions)
	authed.POST("/transactions/", s.createTransaction)
	authed.GET("/transactions/summary/", s.summary)

	authed.GET("/categories/", s.listCategories)
	authed.POST("/categories/", s.createCategory)

	authed.GET("/budgets/progress", s.budgetProgress)
	authed.GET("/forecasts/summary13week/", s.forecast)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	})
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("mock api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("mock api: %w", err)
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("request_id", c.GetHeader("X-Request-ID")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// requireToken implements DRF token authentication: "Authorization: Token <key>".
func (s *Server) requireToken(c *gin.Context) {
	scheme, key, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Token") || strings.TrimSpace(key) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}

	s.mu.RLock()
	name, found := s.tokens[strings.TrimSpace(key)]
	u := s.users[name]
	s.mu.RUnlock()

	if !found || u == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
		return
	}
	c.Set(userKey, u)
	c.Next()
}

// issueToken returns the user's token, creating one if needed. Callers hold mu.
func (s *Server) issueToken(u *user) string {
	for tok, name := range s.tokens {
		if name == u.Username {
			return tok
		}
	}
	tok := strings.ReplaceAll(uuid.NewString(), "-", "")
	s.tokens[tok] = u.Username
	return tok
}

// Token returns a valid token for the demo user.
func (s *Server) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueToken(s.users[DemoUser])
}
