package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hatlonely/schemax/log/writer"
	"github.com/hatlonely/schemax/ref"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewSLogWithOptions(t *testing.T) {
	Convey("NewSLogWithOptions", t, func() {
		Convey("options 不能为空", func() {
			_, err := NewSLogWithOptions(nil)
			So(err, ShouldNotBeNil)
		})

		Convey("非法级别和格式", func() {
			_, err := NewSLogWithOptions(&SLogOptions{Level: "trace"})
			So(err, ShouldNotBeNil)
			_, err = NewSLogWithOptions(&SLogOptions{Format: "xml"})
			So(err, ShouldNotBeNil)
		})

		Convey("默认输出到控制台", func() {
			l, err := NewSLogWithOptions(&SLogOptions{})
			So(err, ShouldBeNil)
			So(l, ShouldNotBeNil)
		})

		Convey("json 格式写入文件，级别和固定字段生效", func() {
			path := filepath.Join(t.TempDir(), "logs", "schemac.log")
			l, err := NewSLogWithOptions(&SLogOptions{
				Level:      "warn",
				Format:     "json",
				TimeFormat: "2006-01-02",
				Fields:     map[string]any{"service": "schemac"},
				Output: &ref.TypeOptions{
					Type:    "FileWriter",
					Options: map[string]any{"path": path},
				},
			})
			So(err, ShouldBeNil)

			l.Info("ignored")
			l.With("table", "files").Warn("enum options missing", "column", "mode")
			l.WithGroup("ddl").ErrorContext(context.Background(), "failed", "dialect", "sqlite3")

			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			So(len(lines), ShouldEqual, 2)

			var first map[string]any
			So(json.Unmarshal([]byte(lines[0]), &first), ShouldBeNil)
			So(first["msg"], ShouldEqual, "enum options missing")
			So(first["service"], ShouldEqual, "schemac")
			So(first["table"], ShouldEqual, "files")
			So(first["column"], ShouldEqual, "mode")
			So(len(first["time"].(string)), ShouldEqual, len("2006-01-02"))

			var second map[string]any
			So(json.Unmarshal([]byte(lines[1]), &second), ShouldBeNil)
			So(second["ddl"], ShouldResemble, map[string]any{"dialect": "sqlite3"})
		})

		Convey("输出器构造失败", func() {
			_, err := NewSLogWithOptions(&SLogOptions{
				Output: &ref.TypeOptions{Type: "FileWriter", Options: map[string]any{}},
			})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSLog(t *testing.T) {
	Convey("SLog 转发到 slog", t, func() {
		var buf bytes.Buffer
		l := NewSLog(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
		ctx := context.Background()

		l.Debug("d")
		l.DebugContext(ctx, "dc")
		l.Info("i")
		l.InfoContext(ctx, "ic")
		l.Warn("w")
		l.WarnContext(ctx, "wc")
		l.Error("e")

		out := buf.String()
		for _, msg := range []string{"msg=d", "msg=dc", "msg=i", "msg=ic", "msg=w", "msg=wc", "msg=e"} {
			So(out, ShouldContainSubstring, msg)
		}
	})
}

func TestRegistered(t *testing.T) {
	Convey("SLog 通过 ref 构造", t, func() {
		l, err := ref.NewWithTypeOptions[Logger](&ref.TypeOptions{
			Namespace: Namespace,
			Type:      "SLog",
			Options: map[string]any{
				"level":  "debug",
				"output": map[string]any{"namespace": writer.Namespace, "type": "ConsoleWriter"},
			},
		})
		So(err, ShouldBeNil)
		So(l, ShouldNotBeNil)
	})
}
