package middleware

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"

	apperrors "blogsphere/pkg/common/errors"
	"blogsphere/pkg/core/auth"
	"blogsphere/pkg/web/model"
)

const bearerPrefix = "Bearer "

// Authenticator 校验令牌并解析出身份
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

// Authenticate 解析 Authorization 头并把身份写入请求上下文。
// 任何失败都不会中断请求，只是以匿名身份继续。
func Authenticate(authenticator Authenticator) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		identity := auth.Anonymous()

		if token, ok := bearerToken(ctx); ok {
			resolved, err := authenticator.Authenticate(c, token)
			if err != nil {
				hlog.CtxWarnf(c, "[AUTH] token rejected path=%s: %v", ctx.Path(), err)
			} else {
				identity = resolved
			}
		}

		ctx.Next(auth.WithIdentity(c, identity))
	}
}

// Authorize 按路由规则拦截未登录请求
func Authorize(policy *auth.RoutePolicy) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		access := policy.Evaluate(string(ctx.Method()), string(ctx.Path()))
		if access == auth.AccessAuthenticated && !auth.IdentityFrom(c).IsAuthenticated() {
			ctx.Header("WWW-Authenticate", `Bearer realm="blogsphere"`)
			ctx.AbortWithStatusJSON(401, model.NewErrorRes(401, apperrors.PublicMessage(apperrors.ErrUnauthorized)))
			return
		}
		ctx.Next(c)
	}
}

func bearerToken(ctx *app.RequestContext) (string, bool) {
	header := string(ctx.GetHeader("Authorization"))
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
