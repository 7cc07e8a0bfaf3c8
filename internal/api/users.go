package api

import (
	"context"
	"encoding/json"
	"strings"
)

// Register creates an account and returns the new user.
func (c *Client) Register(ctx context.Context, username, password string) (User, error) {
	var resp struct {
		User UserRef `json:"user"`
	}
	if err := c.call(ctx, "UserAuth", "register", map[string]string{
		"username": username,
		"password": password,
	}, &resp); err != nil {
		return User{}, err
	}
	id, err := resp.User.Resolve()
	if err != nil {
		return User{}, &Error{Kind: KindMalformed, Op: "UserAuth.register", Err: err}
	}
	return User{ID: id, Username: username}, nil
}

// Login authenticates and returns the user plus an optional session token.
func (c *Client) Login(ctx context.Context, username, password string) (User, string, error) {
	var resp struct {
		User    UserRef `json:"user"`
		Session string  `json:"session"`
	}
	if err := c.call(ctx, "UserAuth", "login", map[string]string{
		"username": username,
		"password": password,
	}, &resp); err != nil {
		return User{}, "", err
	}
	id, err := resp.User.Resolve()
	if err != nil {
		return User{}, "", &Error{Kind: KindMalformed, Op: "UserAuth.login", Err: err}
	}
	return User{ID: id, Username: username}, resp.Session, nil
}

// UserByUsername looks up an account id by username.
func (c *Client) UserByUsername(ctx context.Context, username string) (User, error) {
	var rows []struct {
		User UserRef `json:"user"`
	}
	if err := c.call(ctx, "UserAuth", "_getUserByUsername", map[string]string{"username": username}, &rows); err != nil {
		return User{}, err
	}
	for _, row := range rows {
		if id, err := row.User.Resolve(); err == nil {
			return User{ID: id, Username: username}, nil
		}
	}
	return User{}, ErrNotFound
}

func (c *Client) CreateProfile(ctx context.Context, userID, name string) error {
	return c.call(ctx, "Profile", "createProfile", map[string]string{"user": userID, "name": name}, nil)
}

func (c *Client) UpdateName(ctx context.Context, userID, name string) error {
	return c.call(ctx, "Profile", "updateName", map[string]string{"user": userID, "name": name}, nil)
}

// Profile returns the profile of userID; the backend may wrap it in an array.
func (c *Client) Profile(ctx context.Context, userID string) (Profile, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "Profile", "_getProfile", map[string]string{"user": userID}, &raw); err != nil {
		return Profile{}, err
	}
	var p Profile
	if err := decodeFirst(raw, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Name returns the display name stored in the profile of userID.
func (c *Client) Name(ctx context.Context, userID string) (string, error) {
	var rows []struct {
		Name string `json:"name"`
	}
	if err := c.call(ctx, "Profile", "_getName", map[string]string{"user": userID}, &rows); err != nil {
		return "", err
	}
	for _, row := range rows {
		if name := strings.TrimSpace(row.Name); name != "" {
			return name, nil
		}
	}
	return "", ErrNotFound
}
