package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/hertz-contrib/cors"

	"blogsphere/pkg/common/config"
	"blogsphere/pkg/web/model"
)

// LoggerMiddleware 结构化的请求日志记录
func LoggerMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c) // 放行到后续处理器
		latency := time.Since(start)

		hlog.CtxInfof(c, "| %3d | %13v | %15s | %-7s | %s | UA=%s",
			ctx.Response.StatusCode(),
			latency,
			ctx.ClientIP(),
			ctx.Method(),
			ctx.Path(),
			ctx.GetHeader("User-Agent"),
		)
	}
}

/*
	启动时指定环境变量
	export APP_ENV=production
	go run ./cmd/web
*/

// RecoveryMiddleware 异常捕获，生产环境隐藏堆栈
func RecoveryMiddleware(cfg *config.Config) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				stack := string(debug.Stack())

				hlog.CtxErrorf(c, "[PANIC RECOVERED] %v\n%s", err, stack)

				if cfg.IsProd() {
					ctx.AbortWithStatusJSON(500, model.NewErrorRes(500, "internal server error"))
				} else { // 开发环境显示详细错误
					ctx.AbortWithStatusJSON(500, map[string]interface{}{
						"code":    500,
						"message": fmt.Sprintf("%v", err),
						"success": false,
						"stack":   strings.Split(stack, "\n"),
					})
				}
			}
		}()
		ctx.Next(c)
	}
}

// CORSMiddleware 跨域配置，TrustedDomains 中的域名动态放行
func CORSMiddleware(corsConfig config.CORSConfig) app.HandlerFunc {
	return cors.New(
		cors.Config{
			AllowOrigins:     corsConfig.AllowOrigins,
			AllowMethods:     corsConfig.AllowMethods,
			AllowHeaders:     corsConfig.AllowHeaders,
			ExposeHeaders:    corsConfig.ExposeHeaders,
			AllowCredentials: corsConfig.AllowCredentials,
			MaxAge:           corsConfig.MaxAge,
			AllowOriginFunc: func(origin string) bool {
				for _, domain := range corsConfig.TrustedDomains {
					if strings.HasSuffix(origin, domain) {
						return true
					}
				}
				return false
			},
		},
	)
}

// TimeoutMiddleware 给后续处理器设置截止时间，处理器通过 context 感知超时
func TimeoutMiddleware(seconds int) app.HandlerFunc {
	if seconds <= 0 {
		return func(c context.Context, ctx *app.RequestContext) { ctx.Next(c) }
	}
	timeout := time.Duration(seconds) * time.Second

	return func(c context.Context, ctx *app.RequestContext) {
		timeoutCtx, cancel := context.WithTimeout(c, timeout)
		defer cancel()

		ctx.Next(timeoutCtx)

		if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			hlog.CtxWarnf(c, "request timeout path=%s status=%d", ctx.Path(), ctx.Response.StatusCode())
		}
	}
}

// SecurityCheckMiddleware 全局安全校验中间件
func SecurityCheckMiddleware(securityConfig config.SecurityConfig) app.HandlerFunc {
	// 预编译恶意字符正则
	xssRegex := regexp.MustCompile(`<script.*?>|<\/script>|alert\(|onerror=`)
	sqlInjectRegex := regexp.MustCompile(`\b(union|select|drop|delete|insert)\b`)

	allowed := make(map[string]bool, len(securityConfig.AllowedMethods))
	for _, m := range securityConfig.AllowedMethods {
		allowed[strings.ToUpper(m)] = true
	}

	hosts := make(map[string]bool, len(securityConfig.AllowedHosts))
	for _, host := range securityConfig.AllowedHosts {
		hosts[strings.ToLower(host)] = true
	}

	return func(c context.Context, ctx *app.RequestContext) {
		// 防护机制0：Host白名单
		if len(hosts) > 0 && !hosts[requestHost(ctx)] {
			securityResponse(c, ctx, 400, "host not allowed")
			return
		}

		// 防护机制1：检查User-Agent
		if securityConfig.RequireUserAgent && isInvalidUserAgent(ctx) {
			securityResponse(c, ctx, 400, "missing required header: User-Agent")
			return
		}

		// 防护机制2：请求体大小限制
		if securityConfig.MaxBodySize > 0 && int64(ctx.Request.Header.ContentLength()) > securityConfig.MaxBodySize {
			securityResponse(c, ctx, 413, "request body exceeds max size")
			return
		}

		// 防护机制3：参数恶意字符检查
		if hasMaliciousContent(ctx, xssRegex, sqlInjectRegex) {
			securityResponse(c, ctx, 422, "request contains invalid characters")
			return
		}

		// 防护机制4：检查HTTP方法
		if !allowed[string(ctx.Method())] {
			securityResponse(c, ctx, 405, "method not allowed")
			return
		}

		ctx.Next(c)
	}
}

// requestHost 去掉端口并转为小写
func requestHost(ctx *app.RequestContext) string {
	host := string(ctx.Request.Header.Host())
	if host == "" {
		host = string(ctx.Host())
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}

func isInvalidUserAgent(ctx *app.RequestContext) bool {
	return len(ctx.GetHeader("User-Agent")) == 0
}

func hasMaliciousContent(ctx *app.RequestContext, xss *regexp.Regexp, sql *regexp.Regexp) bool {
	var found int32

	check := func(data []byte) bool {
		return xss.Match(data) || sql.Match(data)
	}

	visitor := func(key, value []byte) {
		if atomic.LoadInt32(&found) == 1 {
			return // 已经找到匹配，跳过后续检查
		}
		if check(key) || check(value) {
			atomic.StoreInt32(&found, 1)
		}
	}

	// 检查Query参数
	ctx.QueryArgs().VisitAll(visitor)
	if atomic.LoadInt32(&found) == 1 {
		return true
	}

	// 检查Post表单参数
	ctx.PostArgs().VisitAll(visitor)
	return atomic.LoadInt32(&found) == 1
}

// 安全响应统一处理
func securityResponse(c context.Context, ctx *app.RequestContext, status int, msg string) {
	hlog.CtxWarnf(c, "SecurityAlert[status=%d] path=%s: %s", status, ctx.Path(), msg)
	ctx.AbortWithStatusJSON(status, model.NewErrorRes(status, msg))
}
