package serializer

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// BSONSerializer 将值包装在 {"value": ...} 文档中，以支持切片、标量等非文档类型
type BSONSerializer[T any] struct{}

type bsonEnvelope[T any] struct {
	Value T `bson:"value"`
}

func NewBSONSerializer[T any]() *BSONSerializer[T] {
	return &BSONSerializer[T]{}
}

func (s *BSONSerializer[T]) Serialize(from T) ([]byte, error) {
	data, err := bson.Marshal(bsonEnvelope[T]{Value: from})
	return data, errors.Wrap(err, "bson encode failed")
}

func (s *BSONSerializer[T]) Deserialize(to []byte) (T, error) {
	var envelope bsonEnvelope[T]
	if err := bson.Unmarshal(to, &envelope); err != nil {
		return envelope.Value, errors.Wrap(err, "bson decode failed")
	}
	return envelope.Value, nil
}
