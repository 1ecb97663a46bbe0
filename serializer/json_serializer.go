package serializer

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

type JSONSerializer[T any] struct{}

func NewJSONSerializer[T any]() *JSONSerializer[T] {
	return &JSONSerializer[T]{}
}

// Serialize 不转义 HTML 字符，输出不带换行
func (s *JSONSerializer[T]) Serialize(from T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(from); err != nil {
		return nil, errors.Wrap(err, "json encode failed")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (s *JSONSerializer[T]) Deserialize(to []byte) (T, error) {
	var result T
	if err := json.Unmarshal(to, &result); err != nil {
		return result, errors.Wrap(err, "json decode failed")
	}
	return result, nil
}
