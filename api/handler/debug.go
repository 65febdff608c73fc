package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dealease/backend/api/transport"
	"github.com/dealease/backend/pkg/httpcontext"
	"github.com/dealease/backend/usecase"
	"github.com/dealease/backend/usecase/app"
)

// DebugHandler runs maintenance commands and queries registered on the dispatcher.
type DebugHandler struct {
	baseHandler
	dispatcher *usecase.Dispatcher
}

func NewDebugHandler(d *usecase.Dispatcher, adapter *httpcontext.Adapter, logger *zap.Logger) *DebugHandler {
	return &DebugHandler{
		baseHandler: newBaseHandler(adapter, logger),
		dispatcher:  d,
	}
}

// @Summary Registered commands and queries
// @Tags debug
// @Router /api/v1/debug [get]
func (h *DebugHandler) Index(ctx *fasthttp.RequestCtx) {
	commands, queries := h.dispatcher.Names()
	h.respondSuccess(ctx, http.StatusOK, map[string][]string{"commands": commands, "queries": queries})
}

// @Summary Clear the error slot of every store
// @Tags debug
// @Router /api/v1/debug/clear-errors [post]
func (h *DebugHandler) ClearErrors(ctx *fasthttp.RequestCtx) {
	h.execute(ctx, app.CmdClearErrors, nil)
}

// @Summary Run a command
// @Tags debug
// @Router /api/v1/debug/commands/{name} [post]
func (h *DebugHandler) Command(ctx *fasthttp.RequestCtx) {
	var req transport.DebugRequest
	if len(ctx.PostBody()) > 0 && !h.decode(ctx, &req) {
		return
	}
	h.execute(ctx, param(ctx, "name"), req.Payload)
}

// @Summary Run a query
// @Tags debug
// @Router /api/v1/debug/queries/{name} [get]
func (h *DebugHandler) Query(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	params := map[string]string{}
	ctx.QueryArgs().VisitAll(func(key, value []byte) {
		params[string(key)] = string(value)
	})
	result, err := h.dispatcher.ExecuteQuery(stdCtx, param(ctx, "name"), params)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

func (h *DebugHandler) execute(ctx *fasthttp.RequestCtx, name string, payload any) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatcher.ExecuteCommand(stdCtx, name, payload)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.requestLogger(stdCtx).Info("debug command executed", zap.String("command", name))
	h.respondSuccess(ctx, http.StatusOK, result)
}
