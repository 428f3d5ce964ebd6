package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"blogsphere/pkg/core/auth"
	"blogsphere/pkg/core/blog/service"
	"blogsphere/pkg/web/model"
)

type PostHandler struct {
	service *service.PostService
}

func NewPostHandler(service *service.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// List GET /api/v1/posts?categoryId=&tagId=&status=
func (h *PostHandler) List(c context.Context, ctx *app.RequestContext) {
	posts, err := h.service.List(c, auth.IdentityFrom(c), service.PostQuery{
		CategoryID: ctx.Query("categoryId"),
		TagID:      ctx.Query("tagId"),
		Status:     ctx.Query("status"),
	})
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	ctx.JSON(200, model.NewPostResList(posts))
}

// Drafts GET /api/v1/posts/drafts
func (h *PostHandler) Drafts(c context.Context, ctx *app.RequestContext) {
	posts, err := h.service.Drafts(c, auth.IdentityFrom(c))
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	ctx.JSON(200, model.NewPostResList(posts))
}

// Get GET /api/v1/posts/:id
func (h *PostHandler) Get(c context.Context, ctx *app.RequestContext) {
	post, err := h.service.Get(c, auth.IdentityFrom(c), ctx.Param("id"))
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	ctx.JSON(200, model.NewPostRes(post))
}

// Create POST /api/v1/posts
func (h *PostHandler) Create(c context.Context, ctx *app.RequestContext) {
	var req model.CreatePostReq
	if !bindJSON(c, ctx, &req) {
		return
	}

	post, err := h.service.Create(c, auth.IdentityFrom(c), postInput(req))
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	ctx.JSON(201, model.NewPostRes(post))
}

// Update PUT /api/v1/posts/:id
func (h *PostHandler) Update(c context.Context, ctx *app.RequestContext) {
	var req model.UpdatePostReq
	if !bindJSON(c, ctx, &req) {
		return
	}

	post, err := h.service.Update(c, auth.IdentityFrom(c), ctx.Param("id"), postInput(req))
	if err != nil {
		respondError(c, ctx, err)
		return
	}
	ctx.JSON(200, model.NewPostRes(post))
}

// Delete DELETE /api/v1/posts/:id
func (h *PostHandler) Delete(c context.Context, ctx *app.RequestContext) {
	if err := h.service.Delete(c, auth.IdentityFrom(c), ctx.Param("id")); err != nil {
		respondError(c, ctx, err)
		return
	}
	ctx.Status(204)
}

func postInput(req model.CreatePostReq) service.PostInput {
	return service.PostInput{
		Title:      req.Title,
		Content:    req.Content,
		Status:     req.Status,
		CategoryID: req.CategoryID,
		TagIDs:     req.TagIDs,
	}
}
