package main

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"gorm.io/gorm"

	"blogsphere/pkg/common/config"
	blogmodel "blogsphere/pkg/core/blog/model"
	blogdao "blogsphere/pkg/core/blog/repository/dao/impl"
	blogmemory "blogsphere/pkg/core/blog/repository/dao/memory"
	usermodel "blogsphere/pkg/core/user/model"
	userdao "blogsphere/pkg/core/user/repository/dao/impl"
	usermemory "blogsphere/pkg/core/user/repository/dao/memory"
	"blogsphere/pkg/web/handler"
	"blogsphere/pkg/web/middleware"
	"blogsphere/pkg/web/router"
)

func main() {
	// 初始化配置
	cfg := config.Load()
	hlog.SetLevel(cfg.HlogLevel())

	if err := cfg.Validate(); err != nil {
		hlog.Fatalf("invalid configuration: %v", err)
	}

	repos, checks, err := initRepositories(cfg)
	if err != nil {
		hlog.Fatalf("failed to initialize storage: %v", err)
	}

	deps, err := router.NewDependencies(cfg, repos)
	if err != nil {
		hlog.Fatalf("failed to initialize services: %v", err)
	}
	deps.Checks = checks

	// 配置了 Redis 时使用分布式限流
	if rl := cfg.Middleware.RateLimit; rl.Rate > 0 && rl.RedisAddr != "" {
		limiter, err := middleware.NewRedisRateLimiter(context.Background(), rl.RedisAddr, rl.RedisPassword, rl.RedisDB, rl.Rate, rl.Interval)
		if err != nil {
			hlog.Warnf("redis rate limiter unavailable, falling back to local buckets: %v", err)
		} else {
			defer limiter.Close()
			deps.Limiter = limiter
			deps.Checks = append(deps.Checks, handler.ComponentCheck{Name: "redis", Check: limiter.Ping})
		}
	}

	// 创建Hertz实例
	h := server.Default(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)

	// 注册路由
	router.RegisterAPIs(h, cfg, deps)

	hlog.Infof("blogsphere listening on %s (env=%s, storage=%s)", cfg.Server.Address, cfg.Env, cfg.Database.Driver)
	h.Spin()
}

// initRepositories 按 database.driver 选择存储实现
func initRepositories(cfg *config.Config) (router.Repositories, []handler.ComponentCheck, error) {
	if cfg.Database.Driver == config.DriverMemory {
		hlog.Warnf("using in-memory storage, data is lost on restart")
		users := usermemory.NewUserRepository()
		store := blogmemory.NewStore(users)
		return router.Repositories{Users: users, Posts: store, Categories: store, Tags: store}, nil, nil
	}

	// 初始化数据库连接
	db, err := cfg.InitDB()
	if err != nil {
		return router.Repositories{}, nil, err
	}
	if err := migrate(db); err != nil {
		return router.Repositories{}, nil, err
	}

	repos := router.Repositories{
		Users:      userdao.NewGormUserRepository(db),
		Posts:      blogdao.NewGormPostRepository(db),
		Categories: blogdao.NewGormCategoryRepository(db),
		Tags:       blogdao.NewGormTagRepository(db),
	}
	checks := []handler.ComponentCheck{{
		Name:   "mysql",
		IsCore: true,
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	return repos, checks, nil
}

// migrate 用户表需先于文章表创建
func migrate(db *gorm.DB) error {
	if err := usermodel.AutoMigrate(db); err != nil {
		return err
	}
	return blogmodel.AutoMigrate(db)
}
