package middleware

import (
	"context"
	"math"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/redis/go-redis/v9"

	"blogsphere/pkg/web/model"
)

// RateLimiter 以客户端为粒度判断是否放行
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// RateLimitMiddleware 按客户端IP限流，limiter 为 nil 时不限流
func RateLimitMiddleware(limiter RateLimiter, metrics *Metrics) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if limiter == nil {
			ctx.Next(c)
			return
		}

		key := ctx.ClientIP()
		if !limiter.Allow(c, key) {
			hlog.CtxInfof(c, "[RATE LIMIT] path=%s client=%s", ctx.Path(), key)
			metrics.recordRateLimitHit(ctx.FullPath())
			ctx.AbortWithStatusJSON(429, model.NewErrorRes(429, "too many requests"))
			return
		}
		ctx.Next(c)
	}
}

// ClientIPResolver 只有来自可信代理的请求才读取 X-Forwarded-For/X-Real-IP，
// trusted 为空时一律使用连接的远端地址
func ClientIPResolver(trusted []string) app.ClientIP {
	var cidrs []*net.IPNet
	for _, entry := range trusted {
		cidr, err := ParseTrustedProxy(entry)
		if err != nil {
			hlog.Warnf("[CLIENT IP] ignore trusted proxy %q: %v", entry, err)
			continue
		}
		cidrs = append(cidrs, cidr)
	}
	return app.ClientIPWithOption(app.ClientIPOptions{
		RemoteIPHeaders: []string{"X-Forwarded-For", "X-Real-IP"},
		TrustedCIDRs:    cidrs,
	})
}

// ParseTrustedProxy 接受 CIDR 或单个IP
func ParseTrustedProxy(entry string) (*net.IPNet, error) {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		_, cidr, err := net.ParseCIDR(entry)
		return cidr, err
	}
	ip := net.ParseIP(entry)
	if ip == nil {
		return nil, &net.ParseError{Type: "IP address", Text: entry}
	}
	if v4 := ip.To4(); v4 != nil {
		return &net.IPNet{IP: v4, Mask: net.CIDRMask(32, 32)}, nil
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(128, 128)}, nil
}

// ClientIPMiddleware 为每个请求设置客户端IP解析方式
func ClientIPMiddleware(resolver app.ClientIP) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		ctx.SetClientIPFunc(resolver)
		ctx.Next(c)
	}
}

// TokenBucket 令牌桶，按经过的时间惰性补充令牌
type TokenBucket struct {
	capacity float64
	perToken time.Duration
	idle     time.Duration
	now      func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucketState
	lastSweep time.Time
}

type bucketState struct {
	tokens float64
	last   time.Time
}

// NewTokenBucket 每个 interval 补充 rate 个令牌，桶容量为 rate，新客户端从满桶开始
func NewTokenBucket(rate int, interval time.Duration) *TokenBucket {
	if rate < 1 {
		rate = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &TokenBucket{
		capacity: float64(rate),
		perToken: interval / time.Duration(rate),
		idle:     interval,
		now:      time.Now,
		buckets:  make(map[string]*bucketState),
	}
}

func (tb *TokenBucket) Allow(_ context.Context, key string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	tb.sweep(now)

	state, ok := tb.buckets[key]
	if !ok {
		state = &bucketState{tokens: tb.capacity, last: now}
		tb.buckets[key] = state
	}

	if elapsed := now.Sub(state.last); elapsed > 0 && tb.perToken > 0 {
		state.tokens = math.Min(tb.capacity, state.tokens+float64(elapsed)/float64(tb.perToken))
		state.last = now
	}

	if state.tokens < 1 {
		return false
	}
	state.tokens--
	return true
}

// sweep 每个 interval 最多执行一次，空闲满一个 interval 的桶已补满，删除后与新桶等价
func (tb *TokenBucket) sweep(now time.Time) {
	if now.Sub(tb.lastSweep) < tb.idle {
		return
	}
	tb.lastSweep = now
	for key, state := range tb.buckets {
		if now.Sub(state.last) >= tb.idle {
			delete(tb.buckets, key)
		}
	}
}

// Len 当前跟踪的客户端数量
func (tb *TokenBucket) Len() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.buckets)
}

// RedisRateLimiter 固定窗口计数，多实例共享配额；Redis 异常时放行
type RedisRateLimiter struct {
	client  *redis.Client
	limit   int
	window  time.Duration
	prefix  string
	timeout time.Duration
}

func NewRedisRateLimiter(ctx context.Context, addr, password string, db, limit int, window time.Duration) (*RedisRateLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	if window <= 0 {
		window = time.Second
	}
	return &RedisRateLimiter{
		client:  client,
		limit:   limit,
		window:  window,
		prefix:  "blogsphere:ratelimit:",
		timeout: 250 * time.Millisecond,
	}, nil
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	if rl.limit <= 0 {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	counter, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		hlog.CtxErrorf(ctx, "[RATE LIMIT] redis incr failed: %v", err)
		return true
	}
	if counter == 1 {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			hlog.CtxErrorf(ctx, "[RATE LIMIT] redis expire failed: %v", err)
		}
	}
	return counter <= int64(rl.limit)
}

// Ping 供健康检查使用
func (rl *RedisRateLimiter) Ping(ctx context.Context) error {
	return rl.client.Ping(ctx).Err()
}

func (rl *RedisRateLimiter) Close() error {
	return rl.client.Close()
}
