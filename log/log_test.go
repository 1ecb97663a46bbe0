package log

import (
	"testing"

	"github.com/hatlonely/schemax/ref"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewLoggerWithOptions(t *testing.T) {
	Convey("NewLoggerWithOptions", t, func() {
		Convey("nil 返回默认日志器", func() {
			l, err := NewLoggerWithOptions(nil)
			So(err, ShouldBeNil)
			So(l, ShouldEqual, Default())
		})

		Convey("Namespace 为空时使用 logger 包", func() {
			l, err := NewLoggerWithOptions(&ref.TypeOptions{
				Type:    "SLog",
				Options: map[string]any{"level": "debug", "format": "json"},
			})
			So(err, ShouldBeNil)
			So(l, ShouldNotBeNil)
			So(l, ShouldNotEqual, Default())
		})

		Convey("非法配置", func() {
			_, err := NewLoggerWithOptions(&ref.TypeOptions{
				Type:    "SLog",
				Options: map[string]any{"level": "verbose"},
			})
			So(err, ShouldNotBeNil)
		})

		Convey("Discard", func() {
			l := Discard()
			l.Info("nothing")
			So(l, ShouldNotBeNil)
		})
	})
}
