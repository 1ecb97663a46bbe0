package schema

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hatlonely/schemax/cfg"
	"github.com/pkg/errors"
)

// Document 声明式的 schema 文档，可以从 json/yaml/toml/ini 文件加载
type Document struct {
	// schema 名
	Name string `cfg:"name" validate:"required"`
	// 表名，为空时使用 Name
	Table  string          `cfg:"table"`
	Fields []FieldDocument `cfg:"fields" validate:"dive"`
}

type FieldDocument struct {
	Key        string `cfg:"key" validate:"required"`
	Kind       string `cfg:"kind" validate:"required,oneof=integer real text blob timestamp node enum"`
	Name       string `cfg:"name"`
	Optional   bool   `cfg:"optional"`
	Identifier bool   `cfg:"identifier"`
	Unique     bool   `cfg:"unique"`
	Array      bool   `cfg:"array"`

	// 字面量默认值，与 DefaultMarker 互斥
	Default any `cfg:"default"`
	// 默认值标记：now, emptyArray
	DefaultMarker string `cfg:"defaultMarker" validate:"omitempty,oneof=now emptyArray"`

	// enum 选项，Labels 和 Codes 二选一
	Labels []string       `cfg:"labels"`
	Codes  []CodeDocument `cfg:"codes" validate:"dive"`

	// 外键引用，格式为 <table>.<key>
	References string `cfg:"references"`
}

type CodeDocument struct {
	Label string `cfg:"label" validate:"required"`
	Code  int64  `cfg:"code" validate:"min=0"`
}

// Resolver 将 <table>.<key> 解析为目标列，找不到时返回 false
type Resolver func(table, key string) (Target, bool)

// LoadDocument 从文件加载文档
func LoadDocument(filename string) (*Document, error) {
	var doc Document
	if err := cfg.Load(filename, &doc); err != nil {
		return nil, err
	}
	if err := doc.validate(); err != nil {
		return nil, errors.WithMessagef(err, "invalid schema document %s", filename)
	}
	return &doc, nil
}

func (d *Document) validate() error {
	for _, f := range d.Fields {
		if f.Default != nil && f.DefaultMarker != "" {
			return errors.Errorf("field %q: default and defaultMarker are exclusive", f.Key)
		}
		if len(f.Labels) > 0 && len(f.Codes) > 0 {
			return errors.Errorf("field %q: labels and codes are exclusive", f.Key)
		}
		if f.References != "" && !strings.Contains(f.References, ".") {
			return errors.Errorf("field %q: references %q must be <table>.<key>", f.Key, f.References)
		}
	}
	return nil
}

// TableName 表名，未设置时使用 schema 名
func (d *Document) TableName() string {
	if d.Table != "" {
		return d.Table
	}
	return d.Name
}

// Builder 将文档转换为 Builder，引用在 Reference 被调用时才通过 resolver 解析
func (d *Document) Builder(resolver Resolver) Builder {
	return func(f FieldBuilder) Fields {
		fields := make(Fields, 0, len(d.Fields))
		for _, fd := range d.Fields {
			fields = append(fields, F(fd.Key, fd.property(f, resolver)))
		}
		return fields
	}
}

func (fd FieldDocument) property(f FieldBuilder, resolver Resolver) Property {
	name := fd.Name
	if name == "" {
		name = fd.Key
	}

	var p Property
	switch Kind(fd.Kind) {
	case KindEnum:
		var options *EnumOptions
		if len(fd.Codes) > 0 {
			codes := make([]EnumCode, len(fd.Codes))
			for i, c := range fd.Codes {
				codes[i] = Code(c.Label, c.Code)
			}
			options = Codes(codes...)
		} else if len(fd.Labels) > 0 {
			options = Labels(fd.Labels...)
		}
		p = f.Enum(name, options)
	case KindInteger, KindReal, KindText, KindBlob, KindTimestamp, KindNode:
		p = primitives[Kind(fd.Kind)].Init(name)
	default:
		p = NewProperty(Kind(fd.Kind)).Init(name)
	}

	if fd.Identifier {
		p = p.Identifier()
	}
	if fd.Optional {
		p = p.Optional()
	}
	if fd.Unique {
		p = p.Unique()
	}
	if fd.Array {
		p = p.Array()
	}

	switch fd.DefaultMarker {
	case "now":
		p = p.Default(Now)
	case "emptyArray":
		p = p.Default(EmptyArray)
	}
	if fd.Default != nil {
		p = p.Default(normalizeDefault(p, fd.Default))
	}

	if fd.References != "" && resolver != nil {
		table, key, _ := strings.Cut(fd.References, ".")
		p = p.References(func() Target {
			target, _ := resolver(table, key)
			return target
		})
	}
	return p
}

// normalizeDefault 将配置文件中解码出的值转换为字段类型对应的 Go 类型
func normalizeDefault(p Property, v any) any {
	if p.array {
		return v
	}
	switch p.kind {
	case KindInteger:
		switch x := v.(type) {
		case float64:
			if x == math.Trunc(x) {
				return int64(x)
			}
		case int:
			return int64(x)
		case string:
			if n, err := strconv.ParseInt(x, 10, 64); err == nil {
				return n
			}
		}
	case KindReal:
		switch x := v.(type) {
		case int:
			return float64(x)
		case int64:
			return float64(x)
		case string:
			if n, err := strconv.ParseFloat(x, 64); err == nil {
				return n
			}
		}
	case KindTimestamp:
		if s, ok := v.(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return t.UTC()
			}
		}
	}
	return v
}
