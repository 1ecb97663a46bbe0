package table

import (
	"github.com/hatlonely/schemax/cfg"
	"github.com/hatlonely/schemax/log"
	"github.com/hatlonely/schemax/ref"
	"github.com/hatlonely/schemax/schema"
	"github.com/hatlonely/schemax/serializer"
	"github.com/pkg/errors"
)

// Backend 默认值标记的解析目标
type Backend string

const (
	// BackendGeneric Now -> "now"，EmptyArray -> "[]"
	BackendGeneric Backend = "generic"
	// BackendSQL Now -> CURRENT_TIMESTAMP，EmptyArray -> '[]'
	BackendSQL Backend = "sql"
)

type Options struct {
	Backend Backend           `cfg:"backend" def:"generic" validate:"oneof=generic sql"`
	Payload serializer.Format `cfg:"payload" def:"json" validate:"oneof=json msgpack bson protobuf"`
	Logger  *ref.TypeOptions  `cfg:"logger"`
}

// Compiler 将字段列表编译为物理列，创建后只读，可以并发使用
type Compiler struct {
	backend Backend
	payload serializer.Format
	logger  log.Logger
}

func NewCompilerWithOptions(options *Options) (*Compiler, error) {
	o := Options{}
	if options != nil {
		o = *options
	}
	if err := cfg.SetDefaults(&o); err != nil {
		return nil, errors.WithMessage(err, "set defaults failed")
	}
	if err := cfg.Validate(&o); err != nil {
		return nil, err
	}

	logger, err := log.NewLoggerWithOptions(o.Logger)
	if err != nil {
		return nil, errors.WithMessage(err, "create logger failed")
	}

	return &Compiler{backend: o.Backend, payload: o.Payload, logger: logger}, nil
}

var defaultCompiler = &Compiler{backend: BackendGeneric, payload: serializer.FormatJSON, logger: log.Default()}

// Table 命名的有序物理列列表，创建后不可变
type Table struct {
	name    string
	columns []Column
	index   map[string]int
}

// New 使用默认配置编译表：generic 默认值、json 载荷、默认日志器
func New(name string, builder schema.Builder) (*Table, error) {
	return defaultCompiler.Compile(name, builder)
}

func NewWithOptions(name string, builder schema.Builder, options *Options) (*Table, error) {
	c, err := NewCompilerWithOptions(options)
	if err != nil {
		return nil, err
	}
	return c.Compile(name, builder)
}

func MustNew(name string, builder schema.Builder) *Table {
	t, err := New(name, builder)
	if err != nil {
		panic(err)
	}
	return t
}

// Compile 调用一次 builder，按字段顺序生成物理列，任何一列失败则整体失败
func (c *Compiler) Compile(name string, builder schema.Builder) (*Table, error) {
	fields, err := schema.Build(builder)
	if err != nil {
		return nil, errors.WithMessagef(err, "build table %q failed", name)
	}

	t := &Table{
		name:    name,
		columns: make([]Column, 0, len(fields)),
		index:   make(map[string]int, len(fields)),
	}
	owners := make(map[string]string, len(fields))
	for _, f := range fields {
		col, err := c.column(name, f)
		if err != nil {
			return nil, errors.WithMessagef(err, "compile column %q of table %q failed", f.Key, name)
		}
		if prev, ok := owners[col.Name]; ok {
			return nil, errors.Wrapf(ErrDuplicateColumn, "column %q of table %q used by both %q and %q", col.Name, name, prev, f.Key)
		}
		owners[col.Name] = f.Key
		t.index[f.Key] = len(t.columns)
		t.columns = append(t.columns, col)
	}
	return t, nil
}

func (c *Compiler) column(table string, f schema.Field) (Column, error) {
	p := f.Property
	if !p.Kind().Valid() {
		return Column{}, errors.Wrapf(schema.ErrUnsupportedType, "kind %q", p.Kind())
	}

	col := Column{Key: f.Key, Name: f.ColumnName(), Kind: p.Kind(), IsArray: p.IsArray()}

	if p.Kind() == schema.KindEnum {
		if options := p.Config().Options; options != nil {
			codec, err := NewEnumCodec(options)
			if err != nil {
				return Column{}, err
			}
			col.Codec = codec
		} else {
			c.logger.Warn("enum options missing, fallback to plain integer column", "table", table, "column", col.Name)
		}
	}

	if p.IsArray() {
		pl, err := newPayload(p.Kind(), c.payload)
		if err != nil {
			return Column{}, err
		}
		col.Type, col.Mode, col.Element, col.Payload = TypeBlob, ModeJSON, p.Kind(), c.payload
		col.transform = arrayTransform{element: p.Kind(), codec: col.Codec, payload: pl}
	} else {
		switch p.Kind() {
		case schema.KindInteger:
			col.Type = TypeInteger
		case schema.KindReal:
			col.Type = TypeReal
		case schema.KindText:
			col.Type = TypeText
		case schema.KindBlob:
			col.Type, col.Mode = TypeBlob, ModeBuffer
		case schema.KindTimestamp:
			col.Type, col.Mode = TypeInteger, ModeTimestamp
			col.transform = timestampTransform{}
		case schema.KindNode:
			s, err := serializer.NewByteSerializer[any](c.payload)
			if err != nil {
				return Column{}, err
			}
			col.Type, col.Mode, col.Payload = TypeBlob, ModeJSON, c.payload
			col.transform = nodeTransform{payload: s}
		case schema.KindEnum:
			col.Type = TypeInteger
			if col.Codec != nil {
				col.transform = enumTransform{codec: col.Codec}
			}
		}
	}

	if p.IsIdentifier() {
		col.PrimaryKey = true
	}
	if !p.IsOptional() {
		col.NotNull = true
	}
	if p.IsUnique() {
		col.Unique = true
	}
	if p.HasDefault() {
		expr, err := c.defaultExpr(col, p.DefaultValue())
		if err != nil {
			return Column{}, errors.WithMessage(err, "invalid default value")
		}
		col.HasDefault, col.Default, col.DefaultExpr = true, p.DefaultValue(), expr
	}
	if r := p.Reference(); r != nil {
		col.Reference = r
	}

	return col, nil
}

func (c *Compiler) defaultExpr(col Column, d schema.Default) (any, error) {
	switch {
	case d.IsNow() && c.backend == BackendSQL:
		return SQLExpr("CURRENT_TIMESTAMP"), nil
	case d.IsNow():
		return "now", nil
	case d.IsEmptyArray() && c.backend == BackendSQL:
		return SQLExpr("'[]'"), nil
	case d.IsEmptyArray():
		return "[]", nil
	}
	return col.Encode(d.Value())
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Len() int {
	return len(t.columns)
}

// Columns 按字段顺序返回列的副本
func (t *Table) Columns() []Column {
	return append([]Column(nil), t.columns...)
}

// Column 按字段 key 查找列
func (t *Table) Column(key string) (Column, bool) {
	i, ok := t.index[key]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// PrimaryKey 主键列，按字段顺序
func (t *Table) PrimaryKey() []Column {
	var cols []Column
	for _, col := range t.columns {
		if col.PrimaryKey {
			cols = append(cols, col)
		}
	}
	return cols
}

// Ref 返回字段 key 对应的引用目标，用于 schema.Property.References；
// key 不存在时 Column 为空，由 DDL 生成器报告
func (t *Table) Ref(key string) schema.Target {
	target := schema.Target{Table: t.name}
	if col, ok := t.Column(key); ok {
		target.Column = col.Name
	}
	return target
}

// EncodeRow 将以字段 key 为键的记录转换为以物理列名为键的存储记录，未知的 key 返回错误
func (t *Table) EncodeRow(row map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(row))
	for key, v := range row {
		col, ok := t.Column(key)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidValue, "unknown field %q", key)
		}
		encoded, err := col.Encode(v)
		if err != nil {
			return nil, errors.WithMessagef(err, "encode field %q failed", key)
		}
		out[col.Name] = encoded
	}
	return out, nil
}

// DecodeRow EncodeRow 的逆过程，忽略不属于本表的列
func (t *Table) DecodeRow(row map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(row))
	for _, col := range t.columns {
		v, ok := row[col.Name]
		if !ok {
			continue
		}
		decoded, err := col.Decode(v)
		if err != nil {
			return nil, errors.WithMessagef(err, "decode column %q failed", col.Name)
		}
		out[col.Key] = decoded
	}
	return out, nil
}
