package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"momento/internal/api"
	"momento/internal/logger"
	"momento/internal/repository"
)

// ErrNotLoggedIn is returned when a principal has no stored user.
var ErrNotLoggedIn = errors.New("not logged in")

// Credentials are validated before they reach the backend.
type Credentials struct {
	Username string `validate:"required,min=2,max=64"`
	Password string `validate:"required,min=4"`
}

// SessionService couples the local session store with the UserAuth endpoints.
type SessionService struct {
	accounts *repository.AccountRepository
	client   *api.Client
	validate *validator.Validate
}

func NewSessionService(accounts *repository.AccountRepository, client *api.Client) *SessionService {
	return &SessionService{accounts: accounts, client: client, validate: validator.New()}
}

// GetUser returns the logged-in user of principal or nil.
func (s *SessionService) GetUser(ctx context.Context, principal string) (*api.User, error) {
	return s.accounts.GetUser(ctx, principal)
}

func (s *SessionService) SetUser(ctx context.Context, principal string, chatID int64, user api.User) error {
	return s.accounts.SetUser(ctx, principal, chatID, user)
}

func (s *SessionService) ClearUser(ctx context.Context, principal string) error {
	return s.accounts.ClearUser(ctx, principal)
}

func (s *SessionService) GetSession(ctx context.Context, principal string) (string, error) {
	return s.accounts.GetSession(ctx, principal)
}

func (s *SessionService) SetSession(ctx context.Context, principal, token string) error {
	return s.accounts.SetSession(ctx, principal, token)
}

// Login authenticates against the backend and stores the result.
func (s *SessionService) Login(ctx context.Context, principal string, chatID int64, creds Credentials) (*api.User, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := s.validate.Struct(creds); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}

	user, token, err := s.client.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.SetUser(ctx, principal, chatID, user); err != nil {
		return nil, err
	}
	if err := s.accounts.SetSession(ctx, principal, token); err != nil {
		return nil, err
	}
	logger.Infof("login principal=%s user=%s", principal, user.ID)
	return &user, nil
}

// Register creates the account and its profile, then logs in.
func (s *SessionService) Register(ctx context.Context, principal string, chatID int64, creds Credentials, displayName string) (*api.User, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := s.validate.Struct(creds); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}

	user, err := s.client.Register(ctx, creds.Username, creds.Password)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = user.Username
	}
	if err := s.client.CreateProfile(ctx, user.ID, name); err != nil {
		logger.Warnf("create profile user=%s: %v", user.ID, err)
	}
	if err := s.client.AddCollaborator(ctx, user.ID); err != nil {
		logger.Warnf("add collaborator user=%s: %v", user.ID, err)
	}
	return s.Login(ctx, principal, chatID, creds)
}

// Logout clears the stored user and session.
func (s *SessionService) Logout(ctx context.Context, principal string) error {
	logger.Infof("logout principal=%s", principal)
	return s.accounts.ClearUser(ctx, principal)
}

// ClientFor returns an API client carrying the stored session of principal.
// Without a stored session the client is anonymous.
func (s *SessionService) ClientFor(ctx context.Context, principal string) (*api.Client, error) {
	token, err := s.accounts.GetSession(ctx, principal)
	if err != nil {
		return nil, err
	}
	return s.client.WithSession(token), nil
}

// Current returns the logged-in user and a client carrying their session.
func (s *SessionService) Current(ctx context.Context, principal string) (*api.User, *api.Client, error) {
	user, err := s.accounts.GetUser(ctx, principal)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrNotLoggedIn
	}
	token, err := s.accounts.GetSession(ctx, principal)
	if err != nil {
		return nil, nil, err
	}
	return user, s.client.WithSession(token), nil
}

// Profile returns the backend profile of the logged-in user.
func (s *SessionService) Profile(ctx context.Context, principal string) (api.Profile, error) {
	user, client, err := s.Current(ctx, principal)
	if err != nil {
		return api.Profile{}, err
	}
	p, err := client.Profile(ctx, user.ID)
	if err != nil {
		return api.Profile{}, err
	}
	if p.Username == "" {
		p.Username = user.Username
	}
	return p, nil
}

// SetName changes the display name of the logged-in user.
func (s *SessionService) SetName(ctx context.Context, principal, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	user, client, err := s.Current(ctx, principal)
	if err != nil {
		return err
	}
	return client.UpdateName(ctx, user.ID, name)
}
