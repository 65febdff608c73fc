package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	appLogger "github.com/dealease/backend/pkg/logger"
)

func TestAdapter_Attach(t *testing.T) {
	a := NewAdapter(time.Second)
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set(HeaderRequestID, "req-42")
	ctx.Request.Header.Set(HeaderUserID, "demo-buyer-1")
	ctx.Request.Header.SetUserAgent("dealease-test")

	stdCtx, cancel := a.Attach(ctx)
	defer cancel()

	deadline, ok := stdCtx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 100*time.Millisecond)
	assert.Equal(t, "req-42", string(ctx.Response.Header.Peek(HeaderRequestID)))
	assert.Equal(t, "demo-buyer-1", appLogger.UserID(stdCtx))
	assert.Equal(t, "dealease-test", stdCtx.Value(KeyUserAgent))
}

func TestAdapter_GeneratesRequestID(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	stdCtx, cancel := NewAdapter(0).Attach(ctx)
	defer cancel()

	assert.NotEmpty(t, string(ctx.Response.Header.Peek(HeaderRequestID)))
	assert.Empty(t, appLogger.UserID(stdCtx))
}
