package schema

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
)

// Schema 命名的有序字段列表，创建后不可变
type Schema struct {
	name   string
	fields Fields
}

// New 调用一次 builder 并保存结果，之后的渲染都基于这份结果
func New(name string, builder Builder) (*Schema, error) {
	fields, err := Build(builder)
	if err != nil {
		return nil, errors.WithMessagef(err, "build schema %q failed", name)
	}
	return &Schema{name: name, fields: fields}, nil
}

func MustNew(name string, builder Builder) *Schema {
	s, err := New(name, builder)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Name() string {
	return s.name
}

// Fields 返回字段列表的副本
func (s *Schema) Fields() Fields {
	return append(Fields(nil), s.fields...)
}

func (s *Schema) Field(key string) (Property, bool) {
	return s.fields.Get(key)
}

// Fingerprint 文本形式、字段 key 和引用目标的 xxh3 哈希
//
// 引用会在这里求值，需要在被引用的表都能解析之后调用
func (s *Schema) Fingerprint() uint64 {
	h := xxh3.New()
	_, _ = h.WriteString(s.String())
	for _, f := range s.fields {
		_, _ = h.WriteString("\x00" + f.Key)
		if r := f.Property.reference; r != nil {
			target := r()
			_, _ = h.WriteString("\x00->" + target.Table + "." + target.Column)
		}
	}
	return h.Sum64()
}

type propertyJSON struct {
	Type         Kind            `json:"type"`
	Name         string          `json:"name,omitempty"`
	Config       *Config         `json:"config,omitempty"`
	IsOptional   bool            `json:"isOptional"`
	IsIdentifier bool            `json:"isIdentifier"`
	IsUnique     bool            `json:"isUnique"`
	IsArray      bool            `json:"isArray"`
	DefaultValue json.RawMessage `json:"defaultValue,omitempty"`
	HasDefault   bool            `json:"hasDefault"`
}

func (p Property) MarshalJSON() ([]byte, error) {
	v := propertyJSON{
		Type:         p.kind,
		Name:         p.name,
		IsOptional:   p.optional,
		IsIdentifier: p.identifier,
		IsUnique:     p.unique,
		IsArray:      p.array,
		HasDefault:   p.HasDefault(),
	}
	if p.config.Options != nil {
		config := p.config
		v.Config = &config
	}
	if p.HasDefault() {
		v.DefaultValue = json.RawMessage(p.def.String())
	}
	return json.Marshal(v)
}

// MarshalJSON 输出 {"name": ..., "fields": {key: property}}，fields 保持声明顺序
func (s *Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	name, err := json.Marshal(s.name)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"name":`)
	buf.Write(name)
	buf.WriteString(`,"fields":{`)
	for i, f := range s.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		property, err := json.Marshal(f.Property)
		if err != nil {
			return nil, errors.Wrapf(err, "marshal field %q failed", f.Key)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(property)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}
