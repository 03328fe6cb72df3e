package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var authFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "todo_auth_failures_total",
	Help: "Authentication-provider calls that failed.",
}, []string{"op"})

// AuthError is any session-provider failure. Code follows the provider's
// error-code convention; Err is the underlying cause when there is one.
type AuthError struct {
	Code    string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// identities is the authentication provider as the gateway sees it.
// mongo.go implements it; the tests use an in-memory fake.
type identities interface {
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password string) error
	SignOut(ctx context.Context, email string) error
	DeleteAccount(ctx context.Context, email string) error
}

// SessionGateway wraps the provider and tracks the one projection the app
// cares about: whether this session is logged in, and as whom. Calls are
// never retried; a failed call is logged, counted and returned typed, and
// the projection is left as it was.
type SessionGateway struct {
	provider identities
	tasks    *taskGroup

	mu       sync.Mutex
	loggedIn bool
	email    string
}

func NewSessionGateway(provider identities, tasks *taskGroup) *SessionGateway {
	return &SessionGateway{provider: provider, tasks: tasks}
}

// LoggedIn reports the current projection.
func (g *SessionGateway) LoggedIn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loggedIn
}

// Email returns the signed-in identity, or "" when logged out.
func (g *SessionGateway) Email() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.email
}

// SignIn authenticates against the provider and, on success, marks the
// session logged-in.
func (g *SessionGateway) SignIn(ctx context.Context, email, password string) error {
	if err := g.provider.SignIn(ctx, email, password); err != nil {
		g.logFailure("signIn", err)
		return err
	}
	g.setSession(true, email)
	return nil
}

// SignUp creates a new identity and, on success, marks the session
// logged-in, mirroring the sign-in path.
func (g *SessionGateway) SignUp(ctx context.Context, email, password string) error {
	if err := g.provider.SignUp(ctx, email, password); err != nil {
		g.logFailure("signUp", err)
		return err
	}
	g.setSession(true, email)
	return nil
}

// SignOut marks the session logged-out immediately; the provider call is
// fired without being awaited.
func (g *SessionGateway) SignOut(ctx context.Context) {
	g.mu.Lock()
	email := g.email
	g.loggedIn = false
	g.email = ""
	g.mu.Unlock()

	g.tasks.Go("signOut", func() error {
		return g.provider.SignOut(context.WithoutCancel(ctx), email)
	})
}

// DeleteAccount removes the current identity from the provider and, on
// success, marks the session logged-out.
func (g *SessionGateway) DeleteAccount(ctx context.Context) error {
	g.mu.Lock()
	email := g.email
	g.mu.Unlock()

	if err := g.provider.DeleteAccount(ctx, email); err != nil {
		g.logFailure("deleteAccount", err)
		return err
	}
	g.setSession(false, "")
	return nil
}

func (g *SessionGateway) setSession(loggedIn bool, email string) {
	g.mu.Lock()
	g.loggedIn = loggedIn
	g.email = email
	g.mu.Unlock()
}

func (g *SessionGateway) logFailure(op string, err error) {
	authFailures.WithLabelValues(op).Inc()
	log.Errorf("%s failed: %v", op, err)
}
