package serializer

import (
	"encoding/json"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtobufSerializer 以 google.protobuf.Value 作为载体
// 值先经过 json 归一化为 structpb 支持的类型，数值在载体中为 double
type ProtobufSerializer[T any] struct{}

func NewProtobufSerializer[T any]() *ProtobufSerializer[T] {
	return &ProtobufSerializer[T]{}
}

func (s *ProtobufSerializer[T]) Serialize(from T) ([]byte, error) {
	data, err := json.Marshal(from)
	if err != nil {
		return nil, errors.Wrap(err, "protobuf normalize failed")
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return nil, errors.Wrap(err, "protobuf normalize failed")
	}
	value, err := structpb.NewValue(normalized)
	if err != nil {
		return nil, errors.Wrap(err, "protobuf convert failed")
	}
	data, err = proto.Marshal(value)
	return data, errors.Wrap(err, "protobuf encode failed")
}

func (s *ProtobufSerializer[T]) Deserialize(to []byte) (T, error) {
	var result T
	var value structpb.Value
	if err := proto.Unmarshal(to, &value); err != nil {
		return result, errors.Wrap(err, "protobuf decode failed")
	}
	data, err := json.Marshal(value.AsInterface())
	if err != nil {
		return result, errors.Wrap(err, "protobuf denormalize failed")
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, errors.Wrap(err, "protobuf denormalize failed")
	}
	return result, nil
}
