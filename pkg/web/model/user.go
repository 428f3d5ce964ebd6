package model

import (
	"blogsphere/pkg/core/auth"
	usermodel "blogsphere/pkg/core/user/model"
)

// 请求/响应数据结构
type (
	SignupReq struct {
		Name     string `json:"name" vd:"@:len($)>0; msg:'name is required'"`
		Email    string `json:"email" vd:"@:email($); msg:'email is not valid'"`
		Password string `json:"password" vd:"@:len($)>0; msg:'password is required'"`
	}

	LoginReq struct {
		Email    string `json:"email" vd:"@:len($)>0; msg:'email is required'"`
		Password string `json:"password" vd:"@:len($)>0; msg:'password is required'"`
	}

	AuthRes struct {
		Token     string `json:"token"`
		ExpiresIn int64  `json:"expiresIn"` // 单位：秒
	}

	UserRes struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
)

func NewAuthRes(token auth.Token) AuthRes {
	return AuthRes{Token: token.Value, ExpiresIn: token.ExpiresIn()}
}

func NewUserRes(user usermodel.User) UserRes {
	return UserRes{ID: user.ID, Name: user.Name, Email: user.Email}
}
