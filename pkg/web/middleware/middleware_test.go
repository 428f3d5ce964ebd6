package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"

	"blogsphere/pkg/core/auth"
	usermodel "blogsphere/pkg/core/user/model"
)

func TestTokenBucketRefill(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tb := NewTokenBucket(2, time.Second)
	tb.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, tb.Allow(ctx, "a"))
	assert.True(t, tb.Allow(ctx, "a"))
	assert.False(t, tb.Allow(ctx, "a"))
	assert.True(t, tb.Allow(ctx, "b"), "buckets are per client")

	now = now.Add(500 * time.Millisecond)
	assert.True(t, tb.Allow(ctx, "a"))
	assert.False(t, tb.Allow(ctx, "a"))

	now = now.Add(time.Hour)
	assert.True(t, tb.Allow(ctx, "a"))
	assert.True(t, tb.Allow(ctx, "a"))
	assert.False(t, tb.Allow(ctx, "a"), "refill is capped at capacity")
}

func TestTokenBucketEvictsIdleClients(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tb := NewTokenBucket(2, time.Second)
	tb.now = func() time.Time { return now }
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		assert.True(t, tb.Allow(ctx, key))
	}
	assert.Equal(t, 3, tb.Len())

	now = now.Add(500 * time.Millisecond)
	assert.True(t, tb.Allow(ctx, "a"))
	assert.Equal(t, 3, tb.Len(), "no sweep before a full interval")

	now = now.Add(600 * time.Millisecond)
	assert.True(t, tb.Allow(ctx, "a"))
	assert.Equal(t, 1, tb.Len())
}

func TestClientIPResolver(t *testing.T) {
	newEngine := func(trusted []string) *server.Hertz {
		h := server.New()
		h.Use(ClientIPMiddleware(ClientIPResolver(trusted)))
		h.GET("/ip", func(c context.Context, ctx *app.RequestContext) {
			ctx.String(200, ctx.ClientIP())
		})
		return h
	}
	spoofed := ut.Header{Key: "X-Forwarded-For", Value: "203.0.113.7"}

	w := ut.PerformRequest(newEngine(nil).Engine, "GET", "/ip", nil, spoofed)
	assert.Equal(t, "0.0.0.0", string(w.Result().Body()), "untrusted peers cannot choose their address")

	w = ut.PerformRequest(newEngine([]string{"0.0.0.0"}).Engine, "GET", "/ip", nil, spoofed)
	assert.Equal(t, "203.0.113.7", string(w.Result().Body()))

	w = ut.PerformRequest(newEngine([]string{"10.0.0.0/8", "bogus"}).Engine, "GET", "/ip", nil, spoofed)
	assert.Equal(t, "0.0.0.0", string(w.Result().Body()))
}

func TestParseTrustedProxy(t *testing.T) {
	cidr, err := ParseTrustedProxy("10.0.0.0/8")
	assert.NoError(t, err)
	assert.Equal(t, "10.0.0.0/8", cidr.String())

	cidr, err = ParseTrustedProxy("192.168.1.1")
	assert.NoError(t, err)
	assert.Equal(t, "192.168.1.1/32", cidr.String())

	cidr, err = ParseTrustedProxy("::1")
	assert.NoError(t, err)
	assert.Equal(t, "::1/128", cidr.String())

	_, err = ParseTrustedProxy("not-an-ip")
	assert.Error(t, err)
}

type stubAuthenticator struct {
	tokens map[string]usermodel.User
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (auth.Identity, error) {
	user, ok := s.tokens[token]
	if !ok {
		return auth.Anonymous(), errors.New("bad token")
	}
	return auth.Authenticated(user), nil
}

func newAuthServer() *server.Hertz {
	h := server.New()
	h.Use(
		Authenticate(stubAuthenticator{tokens: map[string]usermodel.User{
			"good": {ID: "u1", Email: "alice@x.com"},
		}}),
		Authorize(auth.DefaultRoutePolicy()),
	)

	whoami := func(c context.Context, ctx *app.RequestContext) {
		ctx.String(200, auth.IdentityFrom(c).UserID())
	}
	h.GET("/api/v1/posts", whoami)
	h.GET("/api/v1/auth/me", whoami)
	return h
}

func TestAuthenticateAttachesIdentity(t *testing.T) {
	h := newAuthServer()

	w := ut.PerformRequest(h.Engine, "GET", "/api/v1/posts", nil, ut.Header{Key: "Authorization", Value: "Bearer good"})
	assert.Equal(t, 200, w.Result().StatusCode())
	assert.Equal(t, "u1", string(w.Result().Body()))

	w = ut.PerformRequest(h.Engine, "GET", "/api/v1/auth/me", nil, ut.Header{Key: "Authorization", Value: "Bearer good"})
	assert.Equal(t, 200, w.Result().StatusCode())
}

func TestAuthenticateFailsOpen(t *testing.T) {
	h := newAuthServer()

	for _, header := range []string{"", "Bearer bad", "Basic good", "Bearer "} {
		w := ut.PerformRequest(h.Engine, "GET", "/api/v1/posts", nil, ut.Header{Key: "Authorization", Value: header})
		assert.Equal(t, 200, w.Result().StatusCode(), header)
		assert.Empty(t, string(w.Result().Body()), header)

		w = ut.PerformRequest(h.Engine, "GET", "/api/v1/auth/me", nil, ut.Header{Key: "Authorization", Value: header})
		assert.Equal(t, 401, w.Result().StatusCode(), header)
		assert.Equal(t, `Bearer realm="blogsphere"`, w.Result().Header.Get("WWW-Authenticate"))
	}
}

func TestBearerToken(t *testing.T) {
	ctx := app.NewContext(0)
	ctx.Request.Header.Set("Authorization", "Bearer  abc ")
	token, ok := bearerToken(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	ctx.Request.Header.Set("Authorization", "bearer abc")
	_, ok = bearerToken(ctx)
	assert.False(t, ok)
}
