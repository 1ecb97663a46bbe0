package schema

import (
	"fmt"
	"math/big"
	"time"

	"github.com/hatlonely/schemax/serializer"
)

type marker uint8

const (
	markerAbsent marker = iota
	markerLiteral
	markerNow
	markerEmptyArray
)

// Default 字段默认值，零值表示没有默认值
//
// Now 和 EmptyArray 是不透明的标记，由下游（table 的 Backend、ddl 的方言）解析为具体表达式
type Default struct {
	marker marker
	value  any
}

var (
	// Now 当前时间
	Now = Default{marker: markerNow}
	// EmptyArray 空数组
	EmptyArray = Default{marker: markerEmptyArray}
)

// Literal 字面量默认值，包括 0、"" 和 false 这类零值
func Literal(value any) Default {
	return Default{marker: markerLiteral, value: value}
}

func (d Default) IsAbsent() bool     { return d.marker == markerAbsent }
func (d Default) IsLiteral() bool    { return d.marker == markerLiteral }
func (d Default) IsNow() bool        { return d.marker == markerNow }
func (d Default) IsEmptyArray() bool { return d.marker == markerEmptyArray }

// Value 字面量的值，标记和缺省时为 nil
func (d Default) Value() any {
	return d.value
}

// TimeLayout 时间字面量的渲染格式，UTC 毫秒精度
const TimeLayout = "2006-01-02T15:04:05.000Z"

var jsonSerializer = serializer.NewJSONSerializer[any]()

// String 默认值在 schema 文本中的渲染形式，整数不带引号和类型后缀，其他值按 JSON 渲染
func (d Default) String() string {
	switch d.marker {
	case markerNow:
		return `"now"`
	case markerEmptyArray:
		return `"[]"`
	case markerLiteral:
		return renderLiteral(d.value)
	}
	return ""
}

func (d Default) MarshalJSON() ([]byte, error) {
	if d.marker == markerAbsent {
		return []byte("null"), nil
	}
	return []byte(d.String()), nil
}

func renderLiteral(v any) string {
	switch x := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	case *big.Int:
		if x != nil {
			return x.String()
		}
	case time.Time:
		return `"` + x.UTC().Format(TimeLayout) + `"`
	case *time.Time:
		if x != nil {
			return `"` + x.UTC().Format(TimeLayout) + `"`
		}
	}

	data, err := jsonSerializer.Serialize(v)
	if err != nil {
		return "null"
	}
	return string(data)
}
