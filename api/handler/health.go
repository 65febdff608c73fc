package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dealease/backend/api/transport"
	"github.com/dealease/backend/internal/infrastructure/monitor"
	"github.com/dealease/backend/pkg/httpcontext"
)

// StoreStatus exposes the per-store error slots and sizes.
type StoreStatus interface {
	Counts() map[string]int
	Errors() map[string]string
}

// staleAfter flags a monitor snapshot that missed several polls.
const staleAfter = time.Minute

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
	stores  StoreStatus
}

func NewHealthHandler(mon *monitor.Monitor, stores StoreStatus, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		stores:      stores,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	payload := map[string]any{
		"timestamp": time.Now().UTC(),
	}
	online := true
	if h.monitor != nil {
		status := h.monitor.GetStatus()
		pgEnabled, redisEnabled := h.monitor.Configured()
		payload["services"] = map[string]any{
			"postgresql": map[string]any{"enabled": pgEnabled, "online": status.PostgreSQL},
			"redis":      map[string]any{"enabled": redisEnabled, "online": status.Redis},
			"buffer": map[string]any{
				"online":  status.Buffer,
				"size":    status.BufferSize,
				"by_kind": status.BufferByKind,
			},
		}
		online = h.monitor.IsOnline()
		if status.Stale(time.Now(), staleAfter) {
			payload["stale"] = true
		}
	}
	if h.stores != nil {
		payload["stores"] = h.stores.Counts()
		if errs := h.stores.Errors(); len(errs) > 0 {
			payload["store_errors"] = errs
		}
	}

	if online {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", payload))
}
