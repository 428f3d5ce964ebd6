// pkg/common/errors/errors.go

/*
  - 使用实例
    // 业务层直接返回哨兵错误，或包装后返回:
    return fmt.Errorf("%w: post %s", errors.ErrForbidden, id)

    // Web层统一转换:
    status := errors.StatusOf(err)
    msg := errors.PublicMessage(err)
*/
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	hzte "github.com/cloudwego/hertz/pkg/common/errors"
)

// 定义原始错误
var (
	rawErrNotFound           = errors.New("not found")
	rawErrConflict           = errors.New("conflict")
	rawErrUnauthorized       = errors.New("authentication required")
	rawErrForbidden          = errors.New("forbidden")
	rawErrValidation         = errors.New("invalid request")
	rawErrInvalidCredentials = errors.New("invalid email or password")
)

// 包装成 Hertz 错误类型，Public 类型的消息可以直接返回给客户端
var (
	ErrNotFound           = hzte.New(rawErrNotFound, hzte.ErrorTypePublic, nil)
	ErrConflict           = hzte.New(rawErrConflict, hzte.ErrorTypePublic, nil)
	ErrUnauthorized       = hzte.New(rawErrUnauthorized, hzte.ErrorTypePublic, nil)
	ErrForbidden          = hzte.New(rawErrForbidden, hzte.ErrorTypePublic, nil)
	ErrValidation         = hzte.New(rawErrValidation, hzte.ErrorTypePublic, nil)
	ErrInvalidCredentials = hzte.New(rawErrInvalidCredentials, hzte.ErrorTypePublic, nil)

	ErrUserNotFound     = hzte.New(fmt.Errorf("user %w", rawErrNotFound), hzte.ErrorTypePublic, nil)
	ErrPostNotFound     = hzte.New(fmt.Errorf("post %w", rawErrNotFound), hzte.ErrorTypePublic, nil)
	ErrCategoryNotFound = hzte.New(fmt.Errorf("category %w", rawErrNotFound), hzte.ErrorTypePublic, nil)
	ErrTagNotFound      = hzte.New(fmt.Errorf("tag %w", rawErrNotFound), hzte.ErrorTypePublic, nil)

	ErrDuplicateEmail = hzte.New(fmt.Errorf("%w: email already registered", rawErrConflict), hzte.ErrorTypePublic, nil)
)

// ErrDatabaseInternal 不对外暴露细节
var ErrDatabaseInternal = hzte.New(errors.New("database internal error"), hzte.ErrorTypePrivate, nil)

// NewValidation 携带具体字段信息的参数错误
func NewValidation(format string, args ...interface{}) *hzte.Error {
	return hzte.New(fmt.Errorf("%w: %s", rawErrValidation, fmt.Sprintf(format, args...)), hzte.ErrorTypePublic, nil)
}

// NewConflict 携带冲突原因
func NewConflict(format string, args ...interface{}) *hzte.Error {
	return hzte.New(fmt.Errorf("%w: %s", rawErrConflict, fmt.Sprintf(format, args...)), hzte.ErrorTypePublic, nil)
}

// StatusOf 把业务错误映射为HTTP状态码
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, rawErrInvalidCredentials), errors.Is(err, rawErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, rawErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, rawErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, rawErrConflict):
		return http.StatusConflict
	case errors.Is(err, rawErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage 返回可以安全暴露给客户端的错误信息
func PublicMessage(err error) string {
	var hzErr *hzte.Error
	if errors.As(err, &hzErr) && hzErr.IsType(hzte.ErrorTypePublic) {
		return hzErr.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "service unavailable"
	}
	return "internal server error"
}
