package auth

import (
	"net/http"
	"strings"
)

// Access 路由访问级别
type Access int

const (
	AccessAuthenticated Access = iota
	AccessPublic
)

func (a Access) String() string {
	if a == AccessPublic {
		return "public"
	}
	return "authenticated"
}

// RouteRule Method 为空表示任意方法；Pattern 支持结尾的 "/**" 前缀匹配
type RouteRule struct {
	Method  string
	Pattern string
	Access  Access
}

// RoutePolicy 按声明顺序匹配，第一条命中的规则生效，都不命中时使用 fallback
type RoutePolicy struct {
	rules    []RouteRule
	fallback Access
}

func NewRoutePolicy(fallback Access, rules ...RouteRule) *RoutePolicy {
	return &RoutePolicy{rules: rules, fallback: fallback}
}

// DefaultRoutePolicy 博客API的访问规则，未列出的路由默认需要认证
func DefaultRoutePolicy() *RoutePolicy {
	return NewRoutePolicy(AccessAuthenticated,
		RouteRule{Method: http.MethodPost, Pattern: "/api/v1/auth/login", Access: AccessPublic},
		RouteRule{Method: http.MethodPost, Pattern: "/api/v1/auth/signup", Access: AccessPublic},
		RouteRule{Method: http.MethodGet, Pattern: "/api/v1/posts/drafts", Access: AccessAuthenticated},
		RouteRule{Method: http.MethodGet, Pattern: "/api/v1/posts/**", Access: AccessPublic},
		RouteRule{Method: http.MethodGet, Pattern: "/api/v1/categories/**", Access: AccessPublic},
		RouteRule{Method: http.MethodGet, Pattern: "/api/v1/tags/**", Access: AccessPublic},
		RouteRule{Method: http.MethodOptions, Pattern: "/**", Access: AccessPublic},
		RouteRule{Method: http.MethodGet, Pattern: "/health", Access: AccessPublic},
		RouteRule{Method: http.MethodGet, Pattern: "/metrics", Access: AccessPublic},
	)
}

func (p *RoutePolicy) Evaluate(method, path string) Access {
	path = normalizePath(path)
	for _, rule := range p.rules {
		if rule.Method != "" && !strings.EqualFold(rule.Method, method) {
			continue
		}
		if matchPattern(rule.Pattern, path) {
			return rule.Access
		}
	}
	return p.fallback
}

func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == normalizePath(pattern)
}

// 去掉结尾的 "/"，根路径保持不变
func normalizePath(path string) string {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		return "/"
	}
	return path
}
