package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// 统一的 zerolog 入口，所有业务日志都从这里出去
var base = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init 初始化全局日志器，通常在组装根里调用一次
func Init(serviceName string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	base = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Logger 返回全局日志器
func Logger() *zerolog.Logger {
	return &base
}

// Ctx 返回绑定了 trace 信息的日志器，便于日志和链路互查
func Ctx(ctx context.Context) *zerolog.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.HasTraceID() {
		return &base
	}
	l := base.With().Str("trace_id", spanCtx.TraceID().String()).Logger()
	return &l
}
