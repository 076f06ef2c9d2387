package api

import (
	"context"
	"fmt"

	"github.com/nhle/ticket-desk/internal/model"
)

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration are the account creation form fields.
type Registration struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Session is the authentication response: the bearer token plus the
// authenticated user.
type Session struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login exchanges credentials for a session and stores the returned
// token on the client for subsequent requests.
func (c *Client) Login(
	ctx context.Context,
	creds Credentials,
) (*Session, error) {
	var session Session
	if err := c.Post(ctx, "/login", creds, &session); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	c.SetToken(session.Token)
	return &session, nil
}

// Register creates a new account and returns the resulting session.
func (c *Client) Register(
	ctx context.Context,
	reg Registration,
) (*Session, error) {
	var session Session
	if err := c.Post(ctx, "/register", reg, &session); err != nil {
		return nil, fmt.Errorf("registering: %w", err)
	}
	c.SetToken(session.Token)
	return &session, nil
}

// Logout invalidates the current session token server-side.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.Post(ctx, "/logout", nil, nil); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// CurrentUser returns the viewer identity for the active token. Used to
// validate a cached token on startup.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.Get(ctx, "/user", &user); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	return &user, nil
}
