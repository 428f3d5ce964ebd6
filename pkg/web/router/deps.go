package router

import (
	"blogsphere/pkg/common/config"
	"blogsphere/pkg/core/auth"
	blogdao "blogsphere/pkg/core/blog/repository/dao"
	"blogsphere/pkg/core/blog/service"
	userdao "blogsphere/pkg/core/user/repository/dao"
	"blogsphere/pkg/web/handler"
	"blogsphere/pkg/web/middleware"
)

// Repositories 持久化层实现（gorm 或内存）
type Repositories struct {
	Users      userdao.UserRepository
	Posts      blogdao.PostRepository
	Categories blogdao.CategoryRepository
	Tags       blogdao.TagRepository
}

// Dependencies 路由所需的全部服务
type Dependencies struct {
	Auth       *auth.Service
	Posts      *service.PostService
	Categories *service.CategoryService
	Tags       *service.TagService
	Policy     *auth.RoutePolicy

	Metrics *middleware.Metrics
	Limiter middleware.RateLimiter
	Checks  []handler.ComponentCheck
}

// NewDependencies 组装服务；密钥缺失或算法不支持时返回错误
func NewDependencies(cfg *config.Config, repos Repositories) (*Dependencies, error) {
	jwtCfg := cfg.Middleware.JWT
	codec, err := auth.NewTokenCodec(jwtCfg.Secret, jwtCfg.ExpireDuration, jwtCfg.Issuer, jwtCfg.SigningMethod)
	if err != nil {
		return nil, err
	}
	hasher := auth.NewPasswordHasher(jwtCfg.BcryptCost)

	deps := &Dependencies{
		Auth:       auth.NewService(repos.Users, hasher, codec),
		Posts:      service.NewPostService(repos.Posts, repos.Categories, repos.Tags),
		Categories: service.NewCategoryService(repos.Categories),
		Tags:       service.NewTagService(repos.Tags),
		Policy:     auth.DefaultRoutePolicy(),
		Metrics:    middleware.NewMetrics(),
	}

	if rl := cfg.Middleware.RateLimit; rl.Rate > 0 {
		deps.Limiter = middleware.NewTokenBucket(rl.Rate, rl.Interval)
	}
	return deps, nil
}
