package api

import (
	"context"
	"fmt"

	"github.com/nhle/ticket-desk/internal/model"
)

// NewUser are the admin user-creation form fields.
type NewUser struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// UserUpdate are the editable fields of an existing user.
type UserUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ListUsers retrieves all users (admin only).
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.Get(ctx, "/users", &users); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// ListAgents retrieves the agent roster used for assignment and filters.
func (c *Client) ListAgents(ctx context.Context) ([]model.User, error) {
	var agents []model.User
	if err := c.Get(ctx, "/agents", &agents); err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	return agents, nil
}

// CreateUser creates a user (admin only).
func (c *Client) CreateUser(
	ctx context.Context,
	u NewUser,
) (*model.User, error) {
	var created model.User
	if err := c.Post(ctx, "/admin/users", u, &created); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &created, nil
}

// UpdateUser edits a user's profile fields (admin only).
func (c *Client) UpdateUser(
	ctx context.Context,
	id string,
	u UserUpdate,
) (*model.User, error) {
	var updated model.User
	if err := c.Put(ctx, "/admin/users/"+id, u, &updated); err != nil {
		return nil, fmt.Errorf("updating user %s: %w", id, err)
	}
	return &updated, nil
}

// DeleteUser removes a user (admin only).
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := c.Delete(ctx, "/admin/users/"+id); err != nil {
		return fmt.Errorf("deleting user %s: %w", id, err)
	}
	return nil
}

// AssignRole changes a user's role (admin only).
func (c *Client) AssignRole(
	ctx context.Context,
	id string,
	role model.Role,
) (*model.User, error) {
	body := map[string]string{"role": string(role)}
	var updated model.User
	if err := c.Put(ctx, "/admin/users/"+id+"/role", body, &updated); err != nil {
		return nil, fmt.Errorf("assigning role on user %s: %w", id, err)
	}
	return &updated, nil
}
