package serializer

import (
	"github.com/pkg/errors"
)

// Serializer 在 F 和 T 之间双向转换
type Serializer[F, T any] interface {
	Serialize(from F) (T, error)
	Deserialize(to T) (F, error)
}

// Format 序列化格式
type Format string

const (
	FormatJSON     Format = "json"
	FormatMsgPack  Format = "msgpack"
	FormatBSON     Format = "bson"
	FormatProtobuf Format = "protobuf"
)

func Formats() []Format {
	return []Format{FormatJSON, FormatMsgPack, FormatBSON, FormatProtobuf}
}

// NewByteSerializer 创建 T 和 []byte 之间的序列化器，format 为空时使用 json
func NewByteSerializer[T any](format Format) (Serializer[T, []byte], error) {
	switch format {
	case FormatJSON, "":
		return NewJSONSerializer[T](), nil
	case FormatMsgPack:
		return NewMsgPackSerializer[T](), nil
	case FormatBSON:
		return NewBSONSerializer[T](), nil
	case FormatProtobuf:
		return NewProtobufSerializer[T](), nil
	}
	return nil, errors.Errorf("unsupported serializer format %q", format)
}
