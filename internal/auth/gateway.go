// Package auth submits credentials to the server and owns the login
// side of the session lifecycle.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"taskmgr/internal/service"
	"taskmgr/internal/session"
	"taskmgr/internal/validate"
)

// ErrBusy is returned when a submission is already in flight.
var ErrBusy = errors.New("a submission is already in progress")

// Fallback messages shown when the server gives no reason.
const (
	LoginFailed        = "Login failed"
	RegistrationFailed = "Registration failed"
)

// Gateway performs login and registration.
type Gateway struct {
	api     service.Auth
	session *session.Store
	logger  *slog.Logger

	mu   sync.Mutex
	busy bool
}

// NewGateway returns a gateway that stores tokens in store.
func NewGateway(api service.Auth, store *session.Store, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gateway{api: api, session: store, logger: logger.With("component", "auth")}
}

// Login validates the credentials, exchanges them for a token and saves it.
// Nothing is sent when validation fails.
func (g *Gateway) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := validate.Credentials(email, password); err != nil {
		return err
	}
	if err := g.begin(); err != nil {
		return err
	}
	defer g.end()

	token, err := g.api.Login(ctx, email, password)
	if err != nil {
		g.logger.Debug("login rejected", "email", email, "err", err)
		return withFallback(err, LoginFailed)
	}
	if err := g.session.Save(token); err != nil {
		return err
	}
	g.logger.Debug("logged in", "email", email)
	return nil
}

// Register validates the input and creates an account. It does not log in.
func (g *Gateway) Register(ctx context.Context, name, email, password string) (service.Account, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if err := validate.Registration(name, email, password); err != nil {
		return service.Account{}, err
	}
	if err := g.begin(); err != nil {
		return service.Account{}, err
	}
	defer g.end()

	acct, err := g.api.Register(ctx, name, email, password)
	if err != nil {
		g.logger.Debug("registration rejected", "email", email, "err", err)
		return service.Account{}, withFallback(err, RegistrationFailed)
	}
	return acct, nil
}

// Logout destroys the session.
func (g *Gateway) Logout() error {
	return g.session.Clear()
}

func (g *Gateway) begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return ErrBusy
	}
	g.busy = true
	return nil
}

func (g *Gateway) end() {
	g.mu.Lock()
	g.busy = false
	g.mu.Unlock()
}

// withFallback gives an APIError without a message the fallback text.
func withFallback(err error, fallback string) error {
	var apiErr *service.APIError
	if errors.As(err, &apiErr) && apiErr.Message == "" {
		return service.NewAPIError(apiErr.Status, fallback, errors.Unwrap(apiErr))
	}
	return err
}
