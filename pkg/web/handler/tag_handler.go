package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"blogsphere/pkg/core/blog/service"
	"blogsphere/pkg/web/model"
)

type TagHandler struct {
	service *service.TagService
}

func NewTagHandler(service *service.TagService) *TagHandler {
	return &TagHandler{service: service}
}

func (h *TagHandler) List(c context.Context, ctx *app.RequestContext) {
	tags, err := h.service.List(c)
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	ctx.JSON(200, model.NewTagResList(tags))
}

// Create 批量创建，已存在的标签一并返回
func (h *TagHandler) Create(c context.Context, ctx *app.RequestContext) {
	var req model.CreateTagsReq
	if !bindJSON(c, ctx, &req) {
		return
	}

	tags, err := h.service.Create(c, req.Names)
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	ctx.JSON(201, model.NewTagResList(tags))
}

func (h *TagHandler) Delete(c context.Context, ctx *app.RequestContext) {
	if err := h.service.Delete(c, ctx.Param("id")); err != nil {
		respondError(c, ctx, err)
		return
	}
	ctx.Status(204)
}
