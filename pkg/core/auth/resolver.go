package auth

import (
	"context"

	"blogsphere/pkg/core/user/repository/dao"
)

// IdentityResolver 把令牌 subject（邮箱）还原为用户身份
type IdentityResolver struct {
	users dao.UserRepository
}

func NewIdentityResolver(users dao.UserRepository) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// Resolve 令牌签发后用户被删除时返回 ErrUserNotFound
func (r *IdentityResolver) Resolve(ctx context.Context, subject string) (Identity, error) {
	user, err := r.users.QueryByEmail(ctx, subject)
	if err != nil {
		return Anonymous(), err
	}
	return Authenticated(user), nil
}
