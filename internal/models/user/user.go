package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/smartmarkhq/smartmark/internal/db"
	"github.com/smartmarkhq/smartmark/pkg/utils"
	"gorm.io/gorm"
)

// User is a local identity record for an account authenticated through the
// external provider. Provider+Subject is the opaque identity reference the
// provider hands back; it never changes for a given account.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Provider  string `gorm:"size:50;not null;uniqueIndex:idx_provider_subject" json:"provider"`
	Subject   string `gorm:"size:255;not null;uniqueIndex:idx_provider_subject" json:"-"`
	Email     string `gorm:"size:100;not null;index" json:"email" validate:"required,email"`
	Name      string `gorm:"size:100" json:"name" validate:"omitempty,max=100"`
	AvatarURL string `gorm:"type:text" json:"avatar_url" validate:"omitempty,url"`
}

// UserOption configures a User.
type UserOption func(*User)

func WithName(name string) UserOption {
	return func(u *User) { u.Name = name }
}

func WithAvatarURL(url string) UserOption {
	return func(u *User) { u.AvatarURL = url }
}

// UpsertUser finds the user for a provider identity, creating the row on
// first sign-in and refreshing profile fields on subsequent ones.
func UpsertUser(ctx context.Context, rclient *db.RedisClient, gormDB *gorm.DB, provider, subject, email string, opts ...UserOption) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "user upsert canceled")
	}

	u := &User{}
	err := gormDB.WithContext(ctx).Where("provider = ? AND subject = ?", provider, subject).First(u).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to look up user")
	}

	if err == gorm.ErrRecordNotFound {
		u = &User{Provider: provider, Subject: subject, Email: email}
		for _, opt := range opts {
			opt(u)
		}
		if err := gormDB.WithContext(ctx).Create(u).Error; err != nil {
			return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create user in database")
		}
	} else {
		u.Email = email
		for _, opt := range opts {
			opt(u)
		}
		if err := gormDB.WithContext(ctx).Save(u).Error; err != nil {
			return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update user in database")
		}
	}

	userJSON, _ := json.Marshal(u)
	key := "user:" + u.ID.String()
	rclient.Set(ctx, key, userJSON, 30*time.Minute)

	return u, nil
}

// GetUserBy retrieves a single user matching the condition.
func GetUserBy(ctx context.Context, rclient *db.RedisClient, gormDB *gorm.DB, condition string, args []interface{}) (*User, error) {
	var u User
	if err := gormDB.WithContext(ctx).Where(condition, args...).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "User not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to get user")
	}

	return &u, nil
}

// GetUserByID retrieves a user by id, consulting the Redis cache first.
func GetUserByID(ctx context.Context, rclient *db.RedisClient, gormDB *gorm.DB, id uuid.UUID) (*User, error) {
	key := "user:" + id.String()
	if cached, err := rclient.Get(ctx, key).Result(); err == nil && cached != "" {
		var u User
		if err := json.Unmarshal([]byte(cached), &u); err == nil {
			return &u, nil
		}
	}

	u, err := GetUserBy(ctx, rclient, gormDB, "id = ?", []interface{}{id})
	if err != nil {
		return nil, err
	}

	userJSON, _ := json.Marshal(u)
	rclient.Set(ctx, key, userJSON, 30*time.Minute)
	return u, nil
}
