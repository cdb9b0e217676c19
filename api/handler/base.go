package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasks/api/transport"
	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/pkg/httpcontext"
	appLogger "github.com/fastygo/tasks/pkg/logger"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
	now     func() time.Time
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger, now: time.Now}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(appLogger.ContextWithRequestID(context.Background(), httpcontext.RequestID(ctx)))
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	transport.Write(ctx, status, transport.NewSuccess(data, h.now()))
}

// respondError maps domain errors to their status. Anything unclassified is
// wrapped as INTERNAL, logged, and answered with the generic fallback message.
func (h baseHandler) respondError(ctx context.Context, rc *fasthttp.RequestCtx, err error, fallback string) {
	dErr := classify(err, fallback)
	status := statusFor(dErr.Code)
	if dErr.Code == domain.ErrCodeInternal {
		appLogger.WithRequestID(ctx, h.logger).Error(fallback,
			zap.String("method", string(rc.Method())),
			zap.String("path", string(rc.Path())),
			zap.Error(dErr.Err))
	}
	transport.Write(rc, status, transport.NewError(dErr.Message, dErr.Details, h.now()))
}

// classify returns err's domain error, or wraps err as INTERNAL with fallback
// as its public message.
func classify(err error, fallback string) *domain.Error {
	var dErr *domain.Error
	if errors.As(err, &dErr) && dErr.Code != domain.ErrCodeInternal {
		return dErr
	}
	return domain.WrapError(domain.ErrCodeInternal, fallback, err)
}

func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.ErrCodeInvalid, domain.ErrCodeConflict:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// pathID returns the trimmed id path parameter.
func pathID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return strings.TrimSpace(id)
}
