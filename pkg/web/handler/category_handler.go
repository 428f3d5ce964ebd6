package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"blogsphere/pkg/core/blog/service"
	"blogsphere/pkg/web/model"
)

type CategoryHandler struct {
	service *service.CategoryService
}

func NewCategoryHandler(service *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) List(c context.Context, ctx *app.RequestContext) {
	categories, err := h.service.List(c)
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	ctx.JSON(200, model.NewCategoryResList(categories))
}

func (h *CategoryHandler) Create(c context.Context, ctx *app.RequestContext) {
	var req model.CreateCategoryReq
	if !bindJSON(c, ctx, &req) {
		return
	}

	category, err := h.service.Create(c, req.Name)
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	ctx.JSON(201, model.NewCategoryRes(category))
}

func (h *CategoryHandler) Delete(c context.Context, ctx *app.RequestContext) {
	if err := h.service.Delete(c, ctx.Param("id")); err != nil {
		respondError(c, ctx, err)
		return
	}
	ctx.Status(204)
}
