package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/tasks/pkg/logger"
)

func TestRequestID_FromHeader(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set(HeaderRequestID, "abc")

	assert.Equal(t, "abc", RequestID(&ctx))
	assert.Equal(t, "abc", string(ctx.Response.Header.Peek(HeaderRequestID)))
}

func TestRequestID_GeneratedOnce(t *testing.T) {
	var ctx fasthttp.RequestCtx

	first := RequestID(&ctx)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, RequestID(&ctx))
}

func TestAdapter_Attach(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set(HeaderRequestID, "req-9")
	ctx.Request.Header.SetUserAgent("tests")

	stdCtx, cancel := NewAdapter(time.Second).Attach(&ctx)
	defer cancel()

	deadline, ok := stdCtx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 100*time.Millisecond)
	assert.Equal(t, "req-9", appLogger.RequestID(stdCtx))
	assert.Equal(t, "tests", stdCtx.Value(KeyUserAgent))
}
