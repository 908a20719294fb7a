package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// UserStatus 用户状态
type UserStatus string

const (
	UserActive   UserStatus = "ACTIVE"
	UserInactive UserStatus = "INACTIVE"
)

// User 下单用户。
// 认证、会话等都在外层完成，核心链路只需要按 ID 解析用户。
type User struct {
	ID        string
	Name      string
	Email     string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建一个新用户
func NewUser(name, email string) (*User, error) {
	if name == "" || email == "" {
		return nil, errors.New("user name and email are required")
	}

	now := time.Now()
	return &User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Status:    UserActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
