package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"blogsphere/pkg/core/auth"
	"blogsphere/pkg/web/model"
)

type AuthHandler struct {
	service *auth.Service
}

func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// Signup POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c context.Context, ctx *app.RequestContext) {
	var req model.SignupReq
	if !bindJSON(c, ctx, &req) {
		return
	}

	token, err := h.service.Signup(c, auth.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	ctx.JSON(201, model.NewAuthRes(token))
}

// Login POST /api/v1/auth/login
func (h *AuthHandler) Login(c context.Context, ctx *app.RequestContext) {
	var req model.LoginReq
	if !bindJSON(c, ctx, &req) {
		return
	}

	token, err := h.service.Login(c, req.Email, req.Password)
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	ctx.JSON(200, model.NewAuthRes(token))
}

// Me GET /api/v1/auth/me
func (h *AuthHandler) Me(c context.Context, ctx *app.RequestContext) {
	user, err := h.service.Me(c)
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	ctx.JSON(200, model.NewUserRes(user))
}
