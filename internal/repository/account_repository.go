package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"momento/internal/api"
	"momento/internal/model"
)

// AccountRepository is the session store: who is logged in for a principal
// and which session token to send on their behalf.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) find(ctx context.Context, principal string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("principal = ?", principal).First(&account).Error
	switch {
	case err == nil:
		return &account, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find account: %w", err)
	}
}

// GetUser returns the stored user, or nil when nobody is logged in or the
// stored value cannot be decoded.
func (r *AccountRepository) GetUser(ctx context.Context, principal string) (*api.User, error) {
	account, err := r.find(ctx, principal)
	if err != nil || account == nil {
		return nil, err
	}
	return decodeUser(account.UserData), nil
}

func decodeUser(raw string) *api.User {
	if raw == "" {
		return nil
	}
	var user api.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.ID == "" {
		return nil
	}
	return &user
}

// SetUser stores user for principal, overwriting any previous value.
func (r *AccountRepository) SetUser(ctx context.Context, principal string, chatID int64, user api.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return r.upsert(ctx, principal, map[string]interface{}{
		"chat_id":   chatID,
		"user_data": string(data),
	})
}

// ClearUser forgets both the user and the session token.
func (r *AccountRepository) ClearUser(ctx context.Context, principal string) error {
	err := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("principal = ?", principal).
		Updates(map[string]interface{}{"user_data": "", "session": ""}).Error
	if err != nil {
		return fmt.Errorf("clear account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetSession(ctx context.Context, principal string) (string, error) {
	account, err := r.find(ctx, principal)
	if err != nil || account == nil {
		return "", err
	}
	return account.Session, nil
}

func (r *AccountRepository) SetSession(ctx context.Context, principal, token string) error {
	return r.upsert(ctx, principal, map[string]interface{}{"session": token})
}

func (r *AccountRepository) upsert(ctx context.Context, principal string, updates map[string]interface{}) error {
	db := r.db.WithContext(ctx)
	account, err := r.find(ctx, principal)
	if err != nil {
		return err
	}
	if account != nil {
		if err := db.Model(account).Updates(updates).Error; err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		return nil
	}

	account = &model.Account{Principal: principal}
	if v, ok := updates["chat_id"].(int64); ok {
		account.ChatID = v
	}
	if v, ok := updates["user_data"].(string); ok {
		account.UserData = v
	}
	if v, ok := updates["session"].(string); ok {
		account.Session = v
	}
	if err := db.Create(account).Error; err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// ListLoggedIn returns every account that currently holds a user.
func (r *AccountRepository) ListLoggedIn(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := r.db.WithContext(ctx).Where("user_data <> ''").Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// UserOf decodes the user stored in an account row.
func UserOf(account model.Account) *api.User {
	return decodeUser(account.UserData)
}
