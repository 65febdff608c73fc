package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/dealease/backend/domain"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()
	m.Observe("matches", "add", nil)
	m.Observe("matches", "add", nil)
	m.Observe("matches", "update_status", domain.ErrInvalidTransition)
	m.Observe("deals", "load", errors.New("dial tcp: refused"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("matches", "add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("matches", "update_status", "conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("deals", "load", "error")))

	m.SetSize("matches", 7)
	m.SetBufferSize(3)
	assert.Equal(t, 7.0, testutil.ToFloat64(m.StoreItems.WithLabelValues("matches")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BufferItems))

	m.SetBackendUp("redis", true)
	m.SetBackendUp("postgresql", false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendUp.WithLabelValues("redis")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BackendUp.WithLabelValues("postgresql")))
}

func TestMetrics_HandlerExposesRegistry(t *testing.T) {
	m := New()
	m.SetBufferSize(2)

	handler := m.Instrument("/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
	})
	var req fasthttp.RequestCtx
	req.Request.Header.SetMethod(fasthttp.MethodGet)
	handler(&req)

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI("/metrics")
	m.Handler()(&ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	body := string(ctx.Response.Body())
	assert.True(t, strings.Contains(body, "dealease_buffer_items 2"))
	assert.Contains(t, body, `dealease_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
