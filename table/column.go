package table

import (
	"reflect"

	"github.com/hatlonely/schemax/schema"
	"github.com/hatlonely/schemax/serializer"
)

// PhysicalType 物理存储类型，七种逻辑类型都落在这四种上
type PhysicalType string

const (
	TypeInteger PhysicalType = "integer"
	TypeReal    PhysicalType = "real"
	TypeText    PhysicalType = "text"
	TypeBlob    PhysicalType = "blob"
)

// Mode 物理列上的语义标注
type Mode string

const (
	ModeNone      Mode = ""
	ModeBuffer    Mode = "buffer"
	ModeTimestamp Mode = "timestamp"
	ModeJSON      Mode = "json"
)

// SQLExpr 原样写入 DDL 的 SQL 表达式
type SQLExpr string

// Column 物理列描述
type Column struct {
	// 字段 key 和物理列名
	Key  string
	Name string

	Kind schema.Kind
	Type PhysicalType
	Mode Mode

	// 数组列的元素类型，非数组列为空
	Element schema.Kind
	IsArray bool

	PrimaryKey bool
	NotNull    bool
	Unique     bool

	HasDefault bool
	// 原始默认值，Now / EmptyArray 标记保持不透明
	Default schema.Default
	// 按 Backend 解析后的默认值：字面量经过写入转换，标记解析为 Backend 对应的值或 SQLExpr
	DefaultExpr any

	// 延迟的外键引用，由 DDL 生成器解析
	Reference schema.Reference

	// enum 列的编解码器，缺少选项时为 nil
	Codec *EnumCodec

	// ModeJSON 列的载荷格式
	Payload serializer.Format

	transform transform
}

func (c Column) Nullable() bool {
	return !c.NotNull
}

// Encode 写入转换：enum 标签 -> 编码，时间 -> unix 秒，node 和数组 -> 载荷字节
func (c Column) Encode(v any) (any, error) {
	if isNil(v) || c.transform == nil {
		return v, nil
	}
	return c.transform.encode(v)
}

// Decode 读取转换，Encode 的逆过程
func (c Column) Decode(v any) (any, error) {
	if isNil(v) || c.transform == nil {
		return v, nil
	}
	return c.transform.decode(v)
}

// EmptyPayload 空数组按列的载荷格式编码后的字节，非数组列返回 nil
func (c Column) EmptyPayload() ([]byte, error) {
	if !c.IsArray {
		return nil, nil
	}
	v, err := c.Encode([]any{})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
