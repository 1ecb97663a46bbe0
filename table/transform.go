package table

import (
	"math"
	"reflect"
	"time"

	"github.com/hatlonely/schemax/schema"
	"github.com/hatlonely/schemax/serializer"
	"github.com/pkg/errors"
)

// transform 列的读写转换：encode 为写入方向（调用方的值 -> 存储值），decode 为读取方向
type transform interface {
	encode(v any) (any, error)
	decode(v any) (any, error)
}

// timestampTransform time.Time <-> unix 秒
type timestampTransform struct{}

func (timestampTransform) encode(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x.Unix(), nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return x.Unix(), nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidValue, "timestamp %q", x)
		}
		return t.Unix(), nil
	}
	return toInt64(v)
}

func (timestampTransform) decode(v any) (any, error) {
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return nil, err
	}
	return time.Unix(n, 0).UTC(), nil
}

// enumTransform 标签 <-> 编码
type enumTransform struct {
	codec *EnumCodec
}

func (t enumTransform) encode(v any) (any, error) {
	if label, ok := v.(string); ok {
		return t.codec.Encode(label)
	}
	code, err := toInt64(v)
	if err != nil {
		return nil, err
	}
	if _, err := t.codec.Decode(code); err != nil {
		return nil, err
	}
	return code, nil
}

func (t enumTransform) decode(v any) (any, error) {
	code, err := toInt64(v)
	if err != nil {
		return nil, err
	}
	return t.codec.Decode(code)
}

// nodeTransform 结构化对象 <-> 序列化后的字节
type nodeTransform struct {
	payload serializer.Serializer[any, []byte]
}

func (t nodeTransform) encode(v any) (any, error) {
	return t.payload.Serialize(v)
}

func (t nodeTransform) decode(v any) (any, error) {
	data, err := toBytes(v)
	if err != nil {
		return nil, err
	}
	return t.payload.Deserialize(data)
}

// arrayTransform 数组整体序列化为一个载荷
// 元素先按元素类型转换（enum 标签 -> 编码，时间 -> unix 秒），读取时反向转换
type arrayTransform struct {
	element schema.Kind
	codec   *EnumCodec
	payload payload
}

func (t arrayTransform) encode(v any) (any, error) {
	var elements any
	var err error
	switch t.element {
	case schema.KindInteger:
		elements, err = mapSlice(v, toInt64)
	case schema.KindTimestamp:
		elements, err = mapSlice(v, func(e any) (int64, error) {
			n, err := timestampTransform{}.encode(e)
			if err != nil {
				return 0, err
			}
			return n.(int64), nil
		})
	case schema.KindEnum:
		elements, err = mapSlice(v, func(e any) (int64, error) {
			if t.codec == nil {
				return toInt64(e)
			}
			code, err := enumTransform{codec: t.codec}.encode(e)
			if err != nil {
				return 0, err
			}
			return code.(int64), nil
		})
	case schema.KindReal:
		elements, err = mapSlice(v, toFloat64)
	case schema.KindText:
		elements, err = mapSlice(v, func(e any) (string, error) {
			s, ok := e.(string)
			if !ok {
				return "", errors.Wrapf(ErrInvalidValue, "%T is not a string", e)
			}
			return s, nil
		})
	case schema.KindBlob:
		elements, err = mapSlice(v, toBytes)
	default:
		elements, err = mapSlice(v, func(e any) (any, error) { return e, nil })
	}
	if err != nil {
		return nil, err
	}
	return t.payload.marshal(elements)
}

func (t arrayTransform) decode(v any) (any, error) {
	data, err := toBytes(v)
	if err != nil {
		return nil, err
	}
	elements, err := t.payload.unmarshal(data)
	if err != nil {
		return nil, err
	}

	switch t.element {
	case schema.KindTimestamp:
		return mapSlice(elements, func(e any) (time.Time, error) {
			return time.Unix(e.(int64), 0).UTC(), nil
		})
	case schema.KindEnum:
		if t.codec == nil {
			return elements, nil
		}
		return mapSlice(elements, func(e any) (string, error) {
			return t.codec.Decode(e.(int64))
		})
	}
	return elements, nil
}

// payload 数组载荷，元素类型由元素 kind 决定
type payload interface {
	marshal(v any) ([]byte, error)
	unmarshal(data []byte) (any, error)
}

type typedPayload[T any] struct {
	s serializer.Serializer[T, []byte]
}

func (p typedPayload[T]) marshal(v any) ([]byte, error) {
	t, ok := v.(T)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidValue, "unexpected payload %T", v)
	}
	return p.s.Serialize(t)
}

func (p typedPayload[T]) unmarshal(data []byte) (any, error) {
	return p.s.Deserialize(data)
}

func newTypedPayload[T any](format serializer.Format) (payload, error) {
	s, err := serializer.NewByteSerializer[T](format)
	if err != nil {
		return nil, err
	}
	return typedPayload[T]{s: s}, nil
}

func newPayload(element schema.Kind, format serializer.Format) (payload, error) {
	switch element {
	case schema.KindInteger, schema.KindTimestamp, schema.KindEnum:
		return newTypedPayload[[]int64](format)
	case schema.KindReal:
		return newTypedPayload[[]float64](format)
	case schema.KindText:
		return newTypedPayload[[]string](format)
	case schema.KindBlob:
		return newTypedPayload[[][]byte](format)
	}
	return newTypedPayload[[]any](format)
}

func mapSlice[T any](v any, fn func(any) (T, error)) ([]T, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errors.Wrapf(ErrInvalidValue, "%T is not a slice", v)
	}
	out := make([]T, rv.Len())
	for i := range out {
		e, err := fn(rv.Index(i).Interface())
		if err != nil {
			return nil, errors.WithMessagef(err, "element %d", i)
		}
		out[i] = e
	}
	return out, nil
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), nil
		}
	case float32:
		if float64(x) == math.Trunc(float64(x)) {
			return int64(x), nil
		}
	case float64:
		if x == math.Trunc(x) {
			return int64(x), nil
		}
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, errors.Wrapf(ErrInvalidValue, "%v (%T) is not an integer", v, v)
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidValue, "%v (%T) is not a number", v, v)
	}
	return float64(n), nil
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	}
	return nil, errors.Wrapf(ErrInvalidValue, "%T is not bytes", v)
}
