package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"

	apperrors "blogsphere/pkg/common/errors"
	"blogsphere/pkg/web/model"
)

// respondError 统一把业务错误转换为HTTP响应
func respondError(c context.Context, ctx *app.RequestContext, err error) {
	status := apperrors.StatusOf(err)
	if status >= 500 {
		hlog.CtxErrorf(c, "request failed path=%s: %v", ctx.Path(), err)
	}
	ctx.AbortWithStatusJSON(status, model.NewErrorRes(status, apperrors.PublicMessage(err)))
}

// bindJSON 绑定或校验失败时直接写入400响应
func bindJSON(c context.Context, ctx *app.RequestContext, req interface{}) bool {
	if err := ctx.Bind(req); err != nil {
		hlog.CtxDebugf(c, "bind failed path=%s: %v", ctx.Path(), err)
		respondError(c, ctx, apperrors.NewValidation("malformed request body"))
		return false
	}
	// vd标签中的msg直接作为提示返回
	if err := ctx.Validate(req); err != nil {
		respondError(c, ctx, apperrors.NewValidation("%s", err.Error()))
		return false
	}
	return true
}
