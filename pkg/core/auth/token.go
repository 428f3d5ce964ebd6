package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 24 * time.Hour

var (
	ErrTokenInvalid  = errors.New("token invalid")
	ErrSecretMissing = errors.New("jwt secret is required")
)

// Token 签发结果，ExpiresAt 精确到秒（与 JWT NumericDate 一致）
type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiresIn 有效期（秒）
func (t Token) ExpiresIn() int64 {
	return int64(t.ExpiresAt.Sub(t.IssuedAt) / time.Second)
}

// TokenCodec 无状态令牌的签发与校验，密钥在进程启动时加载后只读
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	method jwt.SigningMethod
}

// NewTokenCodec algorithm 为空时使用 HS256，仅接受 HMAC 系列算法
func NewTokenCodec(secret string, ttl time.Duration, issuer, algorithm string) (*TokenCodec, error) {
	if secret == "" {
		return nil, ErrSecretMissing
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing method %q", algorithm)
	}
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		method: method,
	}, nil
}

func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue 签发 {sub, iat, exp, iss}，签名覆盖全部声明
func (c *TokenCodec) Issue(subject string, now time.Time) (Token, error) {
	if subject == "" {
		return Token{}, fmt.Errorf("%w: empty subject", ErrTokenInvalid)
	}
	// NumericDate 只保留秒，先截断保证返回的过期时间与令牌内一致
	issuedAt := now.Truncate(time.Second)
	expiresAt := issuedAt.Add(c.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    c.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return Token{Value: signed, IssuedAt: issuedAt, ExpiresAt: expiresAt}, nil
}

// Verify 校验签名与过期时间（now >= exp 即失效），返回 subject
func (c *TokenCodec) Verify(tokenString string, now time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims.Subject, nil
}
