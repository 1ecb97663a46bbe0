package serializer

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteSerializer(t *testing.T) {
	Convey("NewByteSerializer 按格式创建序列化器", t, func() {
		for _, format := range append(Formats(), "") {
			s, err := NewByteSerializer[[]int64](format)
			So(err, ShouldBeNil)
			So(s, ShouldNotBeNil)
		}

		_, err := NewByteSerializer[[]int64]("xml")
		So(err, ShouldNotBeNil)
	})
}

func TestRoundTrip(t *testing.T) {
	for _, format := range Formats() {
		t.Run(string(format), func(t *testing.T) {
			codes, err := NewByteSerializer[[]int64](format)
			require.NoError(t, err)
			data, err := codes.Serialize([]int64{100644, 40000, 0})
			require.NoError(t, err)
			got, err := codes.Deserialize(data)
			require.NoError(t, err)
			assert.Equal(t, []int64{100644, 40000, 0}, got)

			texts, err := NewByteSerializer[[]string](format)
			require.NoError(t, err)
			data, err = texts.Serialize([]string{"a", "<b>", ""})
			require.NoError(t, err)
			gotTexts, err := texts.Deserialize(data)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "<b>", ""}, gotTexts)

			reals, err := NewByteSerializer[[]float64](format)
			require.NoError(t, err)
			data, err = reals.Serialize([]float64{1.5, -2})
			require.NoError(t, err)
			gotReals, err := reals.Deserialize(data)
			require.NoError(t, err)
			assert.Equal(t, []float64{1.5, -2}, gotReals)

			blobs, err := NewByteSerializer[[][]byte](format)
			require.NoError(t, err)
			data, err = blobs.Serialize([][]byte{{1, 2, 3}, {0xff}})
			require.NoError(t, err)
			gotBlobs, err := blobs.Deserialize(data)
			require.NoError(t, err)
			assert.Equal(t, [][]byte{{1, 2, 3}, {0xff}}, gotBlobs)
		})
	}
}

func TestJSONSerializer(t *testing.T) {
	Convey("JSONSerializer 不转义 HTML 且不带换行", t, func() {
		s := NewJSONSerializer[map[string]any]()
		data, err := s.Serialize(map[string]any{"tag": "<b>"})
		So(err, ShouldBeNil)
		So(string(data), ShouldEqual, `{"tag":"<b>"}`)

		v, err := s.Deserialize(data)
		So(err, ShouldBeNil)
		So(v, ShouldResemble, map[string]any{"tag": "<b>"})

		_, err = s.Deserialize([]byte("{"))
		So(err, ShouldNotBeNil)

		_, err = s.Serialize(map[string]any{"ch": make(chan int)})
		So(err, ShouldNotBeNil)
	})
}

func TestSerializerErrors(t *testing.T) {
	Convey("非法数据反序列化失败", t, func() {
		garbage := []byte{0xc1, 0x00, 0x01}
		_, err := NewMsgPackSerializer[[]int64]().Deserialize(garbage)
		So(err, ShouldNotBeNil)
		_, err = NewBSONSerializer[[]int64]().Deserialize(garbage)
		So(err, ShouldNotBeNil)
		_, err = NewProtobufSerializer[[]int64]().Deserialize([]byte{0xff, 0xff})
		So(err, ShouldNotBeNil)
	})
}
