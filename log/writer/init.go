package writer

import (
	"io"

	"github.com/hatlonely/schemax/ref"
)

// Namespace writer 包在 ref 中的注册空间，ConsoleWriter、FileWriter、MultiWriter 注册在这里
const Namespace = "github.com/hatlonely/schemax/log/writer"

// Writer 日志的最终输出，Close 由持有者负责
type Writer interface {
	io.WriteCloser
}

func init() {
	ref.MustRegister(Namespace, "ConsoleWriter", NewConsoleWriterWithOptions)
	ref.MustRegister(Namespace, "FileWriter", NewFileWriterWithOptions)
	ref.MustRegister(Namespace, "MultiWriter", NewMultiWriterWithOptions)
}
