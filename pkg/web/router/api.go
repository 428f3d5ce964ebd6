package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"blogsphere/pkg/common/config"
	"blogsphere/pkg/web/handler"
	"blogsphere/pkg/web/middleware"
)

// RegisterAPIs 注册所有API路由
func RegisterAPIs(h *server.Hertz, cfg *config.Config, deps *Dependencies) {
	healthHandler := handler.NewHealthCheckHandler(deps.Checks...)
	authHandler := handler.NewAuthHandler(deps.Auth)
	postHandler := handler.NewPostHandler(deps.Posts)
	categoryHandler := handler.NewCategoryHandler(deps.Categories)
	tagHandler := handler.NewTagHandler(deps.Tags)

	// 注册全局中间件（按执行顺序）
	h.Use(
		middleware.ClientIPMiddleware(middleware.ClientIPResolver(cfg.Middleware.Security.TrustedProxies)),
		middleware.RecoveryMiddleware(cfg),
		middleware.LoggerMiddleware(),
		deps.Metrics.Middleware(),
		middleware.SecurityCheckMiddleware(cfg.Middleware.Security),
		middleware.TimeoutMiddleware(cfg.Middleware.Timeout.RequestTimeout),
		middleware.CORSMiddleware(cfg.Middleware.CORS),
		middleware.RateLimitMiddleware(deps.Limiter, deps.Metrics),
		// 先解析身份（失败不拦截），再按路由规则鉴权
		middleware.Authenticate(deps.Auth),
		middleware.Authorize(deps.Policy),
	)

	// 基础接口组
	h.GET("/health", healthHandler.AdvancedHealthCheck)
	h.GET("/metrics", deps.Metrics.Handler())

	// 业务接口组
	apiGroup := h.Group("/api/v1")
	{
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.Signup)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/me", authHandler.Me)
		}

		postGroup := apiGroup.Group("/posts")
		{
			postGroup.GET("", postHandler.List)
			postGroup.GET("/drafts", postHandler.Drafts)
			postGroup.GET("/:id", postHandler.Get)
			postGroup.POST("", postHandler.Create)
			postGroup.PUT("/:id", postHandler.Update)
			postGroup.DELETE("/:id", postHandler.Delete)
		}

		categoryGroup := apiGroup.Group("/categories")
		{
			categoryGroup.GET("", categoryHandler.List)
			categoryGroup.POST("", categoryHandler.Create)
			categoryGroup.DELETE("/:id", categoryHandler.Delete)
		}

		tagGroup := apiGroup.Group("/tags")
		{
			tagGroup.GET("", tagHandler.List)
			tagGroup.POST("", tagHandler.Create)
			tagGroup.DELETE("/:id", tagHandler.Delete)
		}
	}
}
