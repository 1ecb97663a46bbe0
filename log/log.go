package log

import (
	"io"
	"log/slog"

	"github.com/hatlonely/schemax/log/logger"
	"github.com/hatlonely/schemax/ref"
	"github.com/pkg/errors"
)

type Logger = logger.Logger

var defaultLogger Logger

func init() {
	l, err := logger.NewSLogWithOptions(&logger.SLogOptions{Level: "info", Format: "text"})
	if err != nil {
		panic(errors.WithMessage(err, "init default logger failed"))
	}
	defaultLogger = l
}

// Default 默认日志器，text 格式输出到 stderr
func Default() Logger {
	return defaultLogger
}

// Discard 丢弃所有输出的日志器
func Discard() Logger {
	return logger.NewSLog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// NewLoggerWithOptions 根据 TypeOptions 构造日志器，options 为 nil 时返回 Default()
// Namespace 为空时默认为 logger 包
func NewLoggerWithOptions(options *ref.TypeOptions) (Logger, error) {
	if options == nil {
		return Default(), nil
	}
	o := *options
	if o.Namespace == "" {
		o.Namespace = logger.Namespace
	}
	l, err := ref.NewWithTypeOptions[Logger](&o)
	if err != nil {
		return nil, errors.WithMessage(err, "create logger failed")
	}
	return l, nil
}
