package logger

import (
	"context"

	"github.com/hatlonely/schemax/ref"
)

const Namespace = "github.com/hatlonely/schemax/log/logger"

// Logger schemax 各组件共用的结构化日志接口，args 为交替的 key、value
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)

	// With 返回附带固定字段的子日志器，WithGroup 将之后的字段归入 name 分组
	With(args ...any) Logger
	WithGroup(name string) Logger
}

func init() {
	ref.MustRegister(Namespace, "SLog", NewSLogWithOptions)
}
