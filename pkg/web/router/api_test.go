package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"blogsphere/pkg/common/config"
	blogmemory "blogsphere/pkg/core/blog/repository/dao/memory"
	usermemory "blogsphere/pkg/core/user/repository/dao/memory"
	"blogsphere/pkg/web/model"
	"blogsphere/pkg/web/router"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *server.Hertz {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Driver = config.DriverMemory
	cfg.Middleware.JWT.Secret = testSecret
	cfg.Middleware.JWT.BcryptCost = bcrypt.MinCost
	cfg.Middleware.RateLimit.Rate = 1000
	for _, fn := range mutate {
		fn(cfg)
	}
	require.NoError(t, cfg.Validate())

	users := usermemory.NewUserRepository()
	store := blogmemory.NewStore(users)
	deps, err := router.NewDependencies(cfg, router.Repositories{
		Users:      users,
		Posts:      store,
		Categories: store,
		Tags:       store,
	})
	require.NoError(t, err)

	h := server.New()
	router.RegisterAPIs(h, cfg, deps)
	return h
}

type client struct {
	t *testing.T
	h *server.Hertz
}

func (c client) do(method, path, token string, body interface{}) (int, []byte) {
	c.t.Helper()
	return c.doWith(method, path, token, body)
}

func (c client) doWith(method, path, token string, body interface{}, extra ...ut.Header) (int, []byte) {
	c.t.Helper()

	headers := []ut.Header{
		{Key: "User-Agent", Value: "blogsphere-test"},
		{Key: "Content-Type", Value: "application/json"},
	}
	headers = append(headers, extra...)
	if token != "" {
		headers = append(headers, ut.Header{Key: "Authorization", Value: "Bearer " + token})
	}

	var reqBody *ut.Body
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reqBody = &ut.Body{Body: bytes.NewReader(raw), Len: len(raw)}
	}

	w := ut.PerformRequest(c.h.Engine, method, path, reqBody, headers...)
	resp := w.Result()
	return resp.StatusCode(), resp.Body()
}

func (c client) decode(raw []byte, v interface{}) {
	c.t.Helper()
	require.NoError(c.t, json.Unmarshal(raw, v), string(raw))
}

func (c client) signup(name, email, password string) string {
	c.t.Helper()
	status, raw := c.do("POST", "/api/v1/auth/signup", "", model.SignupReq{Name: name, Email: email, Password: password})
	require.Equal(c.t, 201, status, string(raw))

	var res model.AuthRes
	c.decode(raw, &res)
	return res.Token
}

func TestHealthCheckRoute(t *testing.T) {
	c := client{t: t, h: newTestServer(t)}

	status, raw := c.do("GET", "/health", "", nil)
	assert.Equal(t, 200, status)
	assert.Contains(t, string(raw), `"status":"healthy"`)
}

func TestMetricsRoute(t *testing.T) {
	c := client{t: t, h: newTestServer(t)}

	c.do("GET", "/health", "", nil)
	status, raw := c.do("GET", "/metrics", "", nil)
	assert.Equal(t, 200, status)
	assert.Contains(t, string(raw), "blogsphere_api_http_requests_total")
}

func TestAliceScenario(t *testing.T) {
	c := client{t: t, h: newTestServer(t)}

	t1 := c.signup("Alice", "alice@x.com", "pw123456")
	require.NotEmpty(t, t1)

	status, raw := c.do("GET", "/api/v1/auth/me", t1, nil)
	require.Equal(t, 200, status, string(raw))
	var me model.UserRes
	c.decode(raw, &me)
	assert.Equal(t, "Alice", me.Name)
	assert.Equal(t, "alice@x.com", me.Email)
	assert.NotEmpty(t, me.ID)

	status, raw = c.do("POST", "/api/v1/auth/login", "", model.LoginReq{Email: "alice@x.com", Password: "wrong"})
	assert.Equal(t, 401, status)
	var errRes model.ErrorRes
	c.decode(raw, &errRes)
	assert.Equal(t, "invalid email or password", errRes.Message)
	assert.False(t, errRes.Success)

	status, _ = c.do("GET", "/api/v1/posts/drafts", "", nil)
	assert.Equal(t, 401, status)

	status, raw = c.do("GET", "/api/v1/posts", "", nil)
	assert.Equal(t, 200, status)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestSignupAndLogin(t *testing.T) {
	c := client{t: t, h: newTestServer(t)}

	c.signup("Alice", "alice@x.com", "pw123456")

	status, raw := c.do("POST", "/api/v1/auth/login", "", model.LoginReq{Email: "alice@x.com", Password: "pw123456"})
	require.Equal(t, 200, status, string(raw))
	var res model.AuthRes
	c.decode(raw, &res)
	assert.NotEmpty(t, res.Token)
	assert.EqualValues(t, 86400, res.ExpiresIn)

	t.Run("unknown email gets the same answer as a wrong password", func(t *testing.T) {
		status, raw := c.do("POST", "/api/v1/auth/login", "", model.LoginReq{Email: "nobody@x.com", Password: "pw123456"})
		assert.Equal(t, 401, status)
		assert.Contains(t, string(raw), "invalid email or password")
	})

	t.Run("duplicate signup leaves the existing account intact", func(t *testing.T) {
		status, _ := c.do("POST", "/api/v1/auth/signup", "", model.SignupReq{Name: "Mallory", Email: "alice@x.com", Password: "other1234"})
		assert.Equal(t, 409, status)

		status, _ = c.do("POST", "/api/v1/auth/login", "", model.LoginReq{Email: "alice@x.com", Password: "pw123456"})
		assert.Equal(t, 200, status)
	})

	t.Run("invalid signup input", func(t *testing.T) {
		status, _ := c.do("POST", "/api/v1/auth/signup", "", model.SignupReq{Name: "Bob", Email: "not-an-email", Password: "pw123456"})
		assert.Equal(t, 400, status)

		status, _ = c.do("POST", "/api/v1/auth/signup", "", model.SignupReq{Name: "Bob", Email: "bob@x.com", Password: "short"})
		assert.Equal(t, 400, status)
	})
}

func TestAuthenticationFailsOpen(t *testing.T) {
	c := client{t: t, h: newTestServer(t)}

	// 无效令牌在公开路由上按匿名处理
	status, _ := c.do("GET", "/api/v1/posts", "garbage.token.value", nil)
	assert.Equal(t, 200, status)

	// 受保护路由仍然返回401
	status, raw := c.do("GET", "/api/v1/auth/me", "garbage.token.value", nil)
	assert.Equal(t, 401, status)
	assert.Contains(t, string(raw), `"success":false`)

	// 其他密钥签发的令牌同样无效
	other := client{t: t, h: newTestServer(t, func(cfg *config.Config) {
		cfg.Middleware.JWT.Secret = strings.Repeat("z", 32)
	})}
	foreign := other.signup("Alice", "alice@x.com", "pw123456")
	c.signup("Alice", "alice@x.com", "pw123456")

	status, _ = c.do("GET", "/api/v1/auth/me", foreign, nil)
	assert.Equal(t, 401, status)
}

func TestUnknownRouteRequiresAuthentication(t *testing.T) {
	c := client{t: t, h: newTestServer(t)}

	status, _ := c.do("GET", "/api/v1/unknown", "", nil)
	assert.Equal(t, 401, status)

	token := c.signup("Alice", "alice@x.com", "pw123456")
	status, _ = c.do("GET", "/api/v1/unknown", token, nil)
	assert.Equal(t, 404, status)
}

func TestPostOwnershipOverHTTP(t *testing.T) {
	c := client{t: t, h: newTestServer(t)}

	alice := c.signup("Alice", "alice@x.com", "pw123456")
	bob := c.signup("Bob", "bob@x.com", "pw123456")

	status, raw := c.do("POST", "/api/v1/categories", alice, model.CreateCategoryReq{Name: "Go"})
	require.Equal(t, 201, status, string(raw))
	var category model.CategoryRes
	c.decode(raw, &category)

	status, raw = c.do("POST", "/api/v1/tags", alice, model.CreateTagsReq{Names: []string{"web", "auth"}})
	require.Equal(t, 201, status, string(raw))
	var tags []model.TagRes
	c.decode(raw, &tags)
	require.Len(t, tags, 2)

	status, raw = c.do("POST", "/api/v1/posts", alice, model.CreatePostReq{
		Title:      "Hello",
		Content:    "hello world",
		Status:     "PUBLISHED",
		CategoryID: category.ID,
		TagIDs:     []string{tags[0].ID},
	})
	require.Equal(t, 201, status, string(raw))
	var post model.PostRes
	c.decode(raw, &post)
	assert.Equal(t, "Alice", post.Author.Name)
	assert.Equal(t, 1, post.ReadingTime)

	status, _ = c.do("DELETE", "/api/v1/posts/"+post.ID, bob, nil)
	assert.Equal(t, 403, status)

	status, raw = c.do("GET", "/api/v1/posts/"+post.ID, "", nil)
	require.Equal(t, 200, status)
	var fetched model.PostRes
	c.decode(raw, &fetched)
	assert.Equal(t, "Hello", fetched.Title)

	status, _ = c.do("DELETE", "/api/v1/posts/"+post.ID, "", nil)
	assert.Equal(t, 401, status)

	status, _ = c.do("DELETE", "/api/v1/posts/"+post.ID, alice, nil)
	assert.Equal(t, 204, status)

	status, _ = c.do("GET", "/api/v1/posts/"+post.ID, "", nil)
	assert.Equal(t, 404, status)
}

func TestDraftVisibilityOverHTTP(t *testing.T) {
	c := client{t: t, h: newTestServer(t)}

	alice := c.signup("Alice", "alice@x.com", "pw123456")
	bob := c.signup("Bob", "bob@x.com", "pw123456")

	_, raw := c.do("POST", "/api/v1/categories", alice, model.CreateCategoryReq{Name: "Go"})
	var category model.CategoryRes
	c.decode(raw, &category)

	status, raw := c.do("POST", "/api/v1/posts", alice, model.CreatePostReq{
		Title: "Secret draft", Content: "not yet", Status: "DRAFT", CategoryID: category.ID,
	})
	require.Equal(t, 201, status, string(raw))
	var draft model.PostRes
	c.decode(raw, &draft)

	status, _ = c.do("GET", "/api/v1/posts/"+draft.ID, bob, nil)
	assert.Equal(t, 404, status)
	status, _ = c.do("GET", "/api/v1/posts/"+draft.ID, "", nil)
	assert.Equal(t, 404, status)
	status, _ = c.do("GET", "/api/v1/posts/"+draft.ID, alice, nil)
	assert.Equal(t, 200, status)

	status, raw = c.do("GET", "/api/v1/posts/drafts", alice, nil)
	require.Equal(t, 200, status)
	var drafts []model.PostRes
	c.decode(raw, &drafts)
	assert.Len(t, drafts, 1)

	status, raw = c.do("GET", "/api/v1/posts?status=DRAFT", bob, nil)
	require.Equal(t, 200, status)
	assert.JSONEq(t, `[]`, string(raw))

	status, _ = c.do("GET", "/api/v1/posts?status=DRAFT", "", nil)
	assert.Equal(t, 401, status)

	status, raw = c.do("GET", "/api/v1/posts", "", nil)
	require.Equal(t, 200, status)
	assert.JSONEq(t, `[]`, string(raw))

	status, raw = c.do("GET", "/api/v1/categories", "", nil)
	require.Equal(t, 200, status)
	var categories []model.CategoryRes
	c.decode(raw, &categories)
	require.Len(t, categories, 1)
	assert.EqualValues(t, 0, categories[0].PostCount)
}

func TestRateLimit(t *testing.T) {
	c := client{t: t, h: newTestServer(t, func(cfg *config.Config) {
		cfg.Middleware.RateLimit.Rate = 2
	})}

	assert.Equal(t, 200, first(c.do("GET", "/health", "", nil)))
	assert.Equal(t, 200, first(c.do("GET", "/health", "", nil)))
	assert.Equal(t, 429, first(c.do("GET", "/health", "", nil)))
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	c := client{t: t, h: newTestServer(t, func(cfg *config.Config) {
		cfg.Middleware.RateLimit.Rate = 2
	})}

	limited := 0
	for i := 0; i < 10; i++ {
		xff := ut.Header{Key: "X-Forwarded-For", Value: fmt.Sprintf("198.51.100.%d", i+1)}
		if status, _ := c.doWith("GET", "/health", "", nil, xff); status == 429 {
			limited++
		}
	}
	assert.Equal(t, 8, limited)
}

func TestRateLimitHonoursTrustedProxy(t *testing.T) {
	c := client{t: t, h: newTestServer(t, func(cfg *config.Config) {
		cfg.Middleware.RateLimit.Rate = 2
		cfg.Middleware.Security.TrustedProxies = []string{"0.0.0.0/32"}
	})}

	for i := 0; i < 5; i++ {
		xff := ut.Header{Key: "X-Forwarded-For", Value: fmt.Sprintf("198.51.100.%d", i+1)}
		status, _ := c.doWith("GET", "/health", "", nil, xff)
		assert.Equal(t, 200, status, "client %d", i)
	}

	same := ut.Header{Key: "X-Forwarded-For", Value: "198.51.100.1"}
	assert.Equal(t, 200, first(c.doWith("GET", "/health", "", nil, same)))
	assert.Equal(t, 429, first(c.doWith("GET", "/health", "", nil, same)))
}

func TestRequestValidationMessages(t *testing.T) {
	c := client{t: t, h: newTestServer(t)}
	token := c.signup("Alice", "alice@x.com", "pw123456")

	cases := []struct {
		name    string
		path    string
		token   string
		body    interface{}
		message string
	}{
		{"signup email", "/api/v1/auth/signup", "", model.SignupReq{Name: "Bob", Email: "bob@", Password: "pw123456"}, "email is not valid"},
		{"signup name", "/api/v1/auth/signup", "", model.SignupReq{Email: "bob@x.com", Password: "pw123456"}, "name is required"},
		{"login password", "/api/v1/auth/login", "", model.LoginReq{Email: "alice@x.com"}, "password is required"},
		{"post title", "/api/v1/posts", token, model.CreatePostReq{Content: "c", Status: "DRAFT", CategoryID: "x"}, "title is required"},
		{"post category", "/api/v1/posts", token, model.CreatePostReq{Title: "Hello", Content: "c", Status: "DRAFT"}, "categoryId is required"},
		{"category name", "/api/v1/categories", token, model.CreateCategoryReq{}, "category name is required"},
		{"tag names", "/api/v1/tags", token, model.CreateTagsReq{}, "tag names are required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, raw := c.do("POST", tc.path, tc.token, tc.body)
			require.Equal(t, 400, status, string(raw))

			var res model.ErrorRes
			c.decode(raw, &res)
			assert.Contains(t, res.Message, tc.message)
		})
	}
}

func TestAllowedHosts(t *testing.T) {
	c := client{t: t, h: newTestServer(t, func(cfg *config.Config) {
		cfg.Middleware.Security.AllowedHosts = []string{"blog.example.com"}
	})}

	status, _ := c.doWith("GET", "/health", "", nil, ut.Header{Key: "Host", Value: "Blog.Example.com:8080"})
	assert.Equal(t, 200, status)

	status, raw := c.doWith("GET", "/health", "", nil, ut.Header{Key: "Host", Value: "evil.example.net"})
	assert.Equal(t, 400, status)
	assert.Contains(t, string(raw), "host not allowed")
}

func TestSecurityCheck(t *testing.T) {
	c := client{t: t, h: newTestServer(t)}

	status, _ := c.do("GET", "/api/v1/posts?q=%3Cscript%3Ealert(1)%3C%2Fscript%3E", "", nil)
	assert.Equal(t, 422, status)

	status, _ = c.do("PATCH", "/api/v1/posts", "", nil)
	assert.Equal(t, 405, status)
}

func first(status int, _ []byte) int {
	return status
}
