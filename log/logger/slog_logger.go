package logger

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/hatlonely/schemax/log/writer"
	"github.com/hatlonely/schemax/ref"
	"github.com/pkg/errors"
)

// SLogOptions 基于 log/slog 的日志配置
type SLogOptions struct {
	// 日志级别：debug, info, warn, error
	Level string `cfg:"level" def:"info" validate:"oneof=debug info warn warning error"`

	// 输出格式：text, json
	Format string `cfg:"format" def:"text" validate:"oneof=text json"`

	// 输出器，为空时输出到 stderr，Namespace 为空时默认为 writer 包
	Output *ref.TypeOptions `cfg:"output"`

	// 时间格式，为空时使用 slog 默认格式
	TimeFormat string `cfg:"timeFormat"`

	AddSource bool           `cfg:"addSource"`
	Fields    map[string]any `cfg:"fields"`
}

type SLog struct {
	slogger *slog.Logger
}

func NewSLogWithOptions(options *SLogOptions) (*SLog, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}

	level, err := parseLevel(options.Level)
	if err != nil {
		return nil, err
	}

	var w writer.Writer
	if options.Output != nil && options.Output.Type != "" {
		output := *options.Output
		if output.Namespace == "" {
			output.Namespace = writer.Namespace
		}
		if w, err = ref.NewWithTypeOptions[writer.Writer](&output); err != nil {
			return nil, errors.WithMessage(err, "create writer failed")
		}
	} else if w, err = writer.NewConsoleWriterWithOptions(nil); err != nil {
		return nil, errors.WithMessage(err, "create console writer failed")
	}

	handlerOptions := &slog.HandlerOptions{Level: level, AddSource: options.AddSource}
	if layout := options.TimeFormat; layout != "" {
		handlerOptions.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(a.Key, a.Value.Time().Format(layout))
			}
			return a
		}
	}

	var handler slog.Handler
	switch strings.ToLower(options.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, handlerOptions)
	case "text", "":
		handler = slog.NewTextHandler(w, handlerOptions)
	default:
		return nil, errors.Errorf("unsupported format %q", options.Format)
	}

	slogger := slog.New(handler)
	if len(options.Fields) > 0 {
		keys := make([]string, 0, len(options.Fields))
		for k := range options.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		args := make([]any, 0, len(keys)*2)
		for _, k := range keys {
			args = append(args, k, options.Fields[k])
		}
		slogger = slogger.With(args...)
	}

	return &SLog{slogger: slogger}, nil
}

// NewSLog 包装已有的 *slog.Logger
func NewSLog(slogger *slog.Logger) *SLog {
	return &SLog{slogger: slogger}
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.Errorf("unknown level %q", level)
}

func (l *SLog) Debug(msg string, args ...any) { l.slogger.Debug(msg, args...) }
func (l *SLog) Info(msg string, args ...any)  { l.slogger.Info(msg, args...) }
func (l *SLog) Warn(msg string, args ...any)  { l.slogger.Warn(msg, args...) }
func (l *SLog) Error(msg string, args ...any) { l.slogger.Error(msg, args...) }

func (l *SLog) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slogger.DebugContext(ctx, msg, args...)
}

func (l *SLog) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slogger.InfoContext(ctx, msg, args...)
}

func (l *SLog) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slogger.WarnContext(ctx, msg, args...)
}

func (l *SLog) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slogger.ErrorContext(ctx, msg, args...)
}

func (l *SLog) With(args ...any) Logger {
	return &SLog{slogger: l.slogger.With(args...)}
}

func (l *SLog) WithGroup(name string) Logger {
	return &SLog{slogger: l.slogger.WithGroup(name)}
}
