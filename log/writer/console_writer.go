package writer

import (
	"io"
	"os"
)

// ConsoleWriterOptions 控制台输出配置
type ConsoleWriterOptions struct {
	// 输出目标：stdout, stderr
	Target string `cfg:"target" def:"stderr" validate:"oneof=stdout stderr"`
}

// ConsoleWriter 控制台输出器
// 默认输出到 stderr，避免和 schemac 输出到 stdout 的编译结果混在一起
type ConsoleWriter struct {
	w io.Writer
}

func NewConsoleWriterWithOptions(options *ConsoleWriterOptions) (*ConsoleWriter, error) {
	if options == nil || options.Target == "stderr" || options.Target == "" {
		return &ConsoleWriter{w: os.Stderr}, nil
	}
	return &ConsoleWriter{w: os.Stdout}, nil
}

func (c *ConsoleWriter) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

// Close 控制台无需关闭
func (c *ConsoleWriter) Close() error {
	return nil
}
