package api

import (
	"context"
	"net/http"
	"net/url"
)

// ListUsers returns every account.
func (c *Client) ListUsers(ctx context.Context) ([]Identity, error) {
	if c.Demo {
		return demoUsers(), nil
	}
	var out []Identity
	if err := c.do(ctx, http.MethodGet, "/users", "/users", nil, &out, "failed to fetch users"); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUser returns a single account by id.
func (c *Client) GetUser(ctx context.Context, id ID) (*Identity, error) {
	if c.Demo {
		if u := demoUser(id); u != nil {
			return u, nil
		}
		return nil, &Error{Status: http.StatusNotFound, Message: "user not found"}
	}
	var out Identity
	if err := c.do(ctx, http.MethodGet, "/users/:id", "/users/"+url.PathEscape(string(id)), nil, &out, "failed to fetch user"); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateUser creates an account through the admin console.
func (c *Client) CreateUser(ctx context.Context, req NewUser) (*Identity, error) {
	if c.Demo {
		id := demoIdentity(req.Name, req.Email, req.Role)
		return &id, nil
	}
	var out Identity
	if err := c.do(ctx, http.MethodPost, "/users", "/users", req, &out, "failed to create user"); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser updates the mutable profile fields of an account.
func (c *Client) UpdateUser(ctx context.Context, id ID, req UserUpdate) (*Identity, error) {
	if c.Demo {
		u := demoUser(id)
		if u == nil {
			return nil, &Error{Status: http.StatusNotFound, Message: "user not found"}
		}
		applyDemoUpdate(u, req)
		return u, nil
	}
	var out Identity
	if err := c.do(ctx, http.MethodPut, "/users/:id", "/users/"+url.PathEscape(string(id)), req, &out, "failed to update user"); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id ID) error {
	if c.Demo {
		return nil
	}
	return c.do(ctx, http.MethodDelete, "/users/:id", "/users/"+url.PathEscape(string(id)), nil, nil, "failed to delete user")
}

// UsersByRole returns the accounts holding the given role.
func (c *Client) UsersByRole(ctx context.Context, role string) ([]Identity, error) {
	if c.Demo {
		var out []Identity
		for _, u := range demoUsers() {
			if u.Role == role {
				out = append(out, u)
			}
		}
		return out, nil
	}
	var out []Identity
	if err := c.do(ctx, http.MethodGet, "/users/role/:role", "/users/role/"+url.PathEscape(role), nil, &out, "failed to fetch users by role"); err != nil {
		return nil, err
	}
	return out, nil
}
