package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dealease/backend/api/transport"
	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/internal/middleware"
	"github.com/dealease/backend/pkg/httpcontext"
	appLogger "github.com/dealease/backend/pkg/logger"
)

var (
	errNotOwner = domain.NewError(domain.ErrCodeForbidden, "resource belongs to another user")
	errNotParty = domain.NewError(domain.ErrCodeForbidden, "user is not a party to this match")
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data any) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func respondListOf[T any](h baseHandler, ctx *fasthttp.RequestCtx, items []T) {
	if items == nil {
		items = []T{}
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(items, transport.ListMeta{Total: len(items)}))
}

// respondUpdated answers an entity mutation. A nil result without error means
// the id was unknown.
func respondUpdated[T any](h baseHandler, ctx *fasthttp.RequestCtx, updated *T, err error, notFound error) {
	switch {
	case err != nil:
		h.respondError(ctx, err)
	case updated == nil:
		h.respondError(ctx, notFound)
	default:
		h.respondSuccess(ctx, http.StatusOK, updated)
	}
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	h.respondErrorMeta(ctx, err, nil)
}

func (h baseHandler) respondErrorMeta(ctx *fasthttp.RequestCtx, err error, meta any) {
	status, code := mapError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.ByteString("path", ctx.Path()),
			zap.Error(err),
		)
	}
	h.respondJSON(ctx, status, transport.NewError(code, err.Error(), meta))
}

func (h baseHandler) respondInvalid(ctx *fasthttp.RequestCtx, message string) {
	h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), message, nil))
}

// decode unmarshals the request body into dst, answering 400 on failure.
func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst any) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return false
	}
	return true
}

// caller returns the authenticated user id forwarded by the auth middleware.
func (h baseHandler) caller(ctx *fasthttp.RequestCtx) string {
	userID := string(ctx.Request.Header.Peek(middleware.HeaderUserID))
	if userID == "" {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing user id", nil))
	}
	return userID
}

func (h baseHandler) requestLogger(stdCtx context.Context) *zap.Logger {
	return appLogger.FromContext(stdCtx, h.logger)
}

func param(ctx *fasthttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}

func query(ctx *fasthttp.RequestCtx, name string) string {
	return string(ctx.QueryArgs().Peek(name))
}

func queryBool(ctx *fasthttp.RequestCtx, name string) bool {
	v, err := strconv.ParseBool(query(ctx, name))
	return err == nil && v
}

func queryList(ctx *fasthttp.RequestCtx, name string) []string {
	var out []string
	for _, part := range strings.Split(query(ctx, name), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func queryFloat(ctx *fasthttp.RequestCtx, name string) (float64, bool) {
	v, err := strconv.ParseFloat(query(ctx, name), 64)
	return v, err == nil
}

// queryRange builds a range filter; a missing bound stays open.
func queryRange(ctx *fasthttp.RequestCtx, minName, maxName string) *domain.Range {
	lo, hasMin := queryFloat(ctx, minName)
	hi, hasMax := queryFloat(ctx, maxName)
	if !hasMin && !hasMax {
		return nil
	}
	return &domain.Range{Min: lo, Max: hi}
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}
