package model

// ErrorRes 统一错误响应
type ErrorRes struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func NewErrorRes(status int, message string) ErrorRes {
	return ErrorRes{Code: status, Message: message}
}
