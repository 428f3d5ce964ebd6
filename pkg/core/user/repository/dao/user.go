package dao

import (
	"context"

	"blogsphere/pkg/core/user/model"
)

// UserRepository 凭证存储。实现需保证并发安全。
type UserRepository interface {
	QueryByID(ctx context.Context, id string) (model.User, error)
	QueryByEmail(ctx context.Context, email string) (model.User, error)
	IsEmailExists(ctx context.Context, email string) (bool, error)
	// CreateUser 写入新用户并回填ID，邮箱重复时返回 errors.ErrDuplicateEmail
	CreateUser(ctx context.Context, user *model.User) error
}
