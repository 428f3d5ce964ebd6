package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	apperrors "blogsphere/pkg/common/errors"
	"blogsphere/pkg/core/user/model"
	"blogsphere/pkg/core/user/repository/dao"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt 上限（字节）
	maxNameLen     = 80
)

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// Service 注册、登录与令牌认证
type Service struct {
	users    dao.UserRepository
	hasher   *PasswordHasher
	codec    *TokenCodec
	resolver *IdentityResolver
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewService(users dao.UserRepository, hasher *PasswordHasher, codec *TokenCodec) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		codec:    codec,
		resolver: NewIdentityResolver(users),
		now:      time.Now,
	}
}

// WithClock 替换时间来源，便于测试过期逻辑
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Signup 邮箱已注册时返回 ErrDuplicateEmail，已有用户保持不变
func (s *Service) Signup(ctx context.Context, in SignupInput) (Token, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateSignup(in); err != nil {
		return Token{}, err
	}

	exists, err := s.users.IsEmailExists(ctx, in.Email)
	if err != nil {
		return Token{}, err
	}
	if exists {
		return Token{}, apperrors.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Token{}, err
	}

	user := &model.User{Name: in.Name, Email: in.Email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return Token{}, err
	}
	hlog.CtxInfof(ctx, "[AUTH] user registered id=%s", user.ID)

	return s.codec.Issue(user.Email, s.now())
}

// Login 用户不存在与密码错误返回同一个错误，避免枚举邮箱
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	user, err := s.users.QueryByEmail(ctx, strings.TrimSpace(email))
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		// 对不存在的用户同样做一次哈希比较，拉平响应时间
		s.hasher.Verify(password, s.fallbackHash())
		return Token{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return Token{}, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return Token{}, apperrors.ErrInvalidCredentials
	}
	return s.codec.Issue(user.Email, s.now())
}

// Authenticate 校验令牌并解析身份，失败时由调用方决定如何处理
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	subject, err := s.codec.Verify(token, s.now())
	if err != nil {
		return Anonymous(), err
	}
	identity, err := s.resolver.Resolve(ctx, subject)
	if err != nil {
		return Anonymous(), fmt.Errorf("resolve subject: %w", err)
	}
	return identity, nil
}

// Me 当前请求的用户
func (s *Service) Me(ctx context.Context) (model.User, error) {
	user, ok := IdentityFrom(ctx).User()
	if !ok {
		return model.User{}, apperrors.ErrUnauthorized
	}
	return user, nil
}

func (s *Service) fallbackHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("blogsphere-timing-equalizer")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func validateSignup(in SignupInput) error {
	if in.Name == "" || utf8.RuneCountInString(in.Name) > maxNameLen {
		return apperrors.NewValidation("name must be between 1 and %d characters", maxNameLen)
	}
	if in.Email == "" {
		return apperrors.NewValidation("email is required")
	}
	return validatePasswordStrength(in.Password)
}

func validatePasswordStrength(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return apperrors.NewValidation("password must be between %d and %d characters", minPasswordLen, maxPasswordLen)
	}

	hasNumber := false
	hasLetter := false
	for _, c := range password {
		switch {
		case unicode.IsNumber(c):
			hasNumber = true
		case unicode.IsLetter(c):
			hasLetter = true
		}
	}

	if !(hasNumber && hasLetter) {
		return apperrors.NewValidation("password must contain letters and numbers")
	}
	return nil
}
