package auth

import (
	"context"

	"blogsphere/pkg/core/user/model"
)

// Identity 单次请求内的身份：匿名或已认证用户，二者择一
type Identity struct {
	user *model.User
}

func Anonymous() Identity {
	return Identity{}
}

func Authenticated(user model.User) Identity {
	return Identity{user: &user}
}

func (i Identity) IsAuthenticated() bool {
	return i.user != nil
}

// User 匿名身份返回 false
func (i Identity) User() (model.User, bool) {
	if i.user == nil {
		return model.User{}, false
	}
	return *i.user, true
}

// UserID 匿名身份返回空串
func (i Identity) UserID() string {
	if i.user == nil {
		return ""
	}
	return i.user.ID
}

type identityKey struct{}

// WithIdentity 把身份挂到请求上下文，随调用链显式传递
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom 上下文中没有身份时视为匿名
func IdentityFrom(ctx context.Context) Identity {
	if identity, ok := ctx.Value(identityKey{}).(Identity); ok {
		return identity
	}
	return Anonymous()
}
