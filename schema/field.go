package schema

import (
	"github.com/pkg/errors"
)

// Field 字段 key 和描述
type Field struct {
	Key      string
	Property Property
}

// F 构造 Field
func F(key string, property Property) Field {
	return Field{Key: key, Property: property}
}

// Fields 有序的字段列表，所有渲染和编译都保持这个顺序
type Fields []Field

// Get 按 key 查找字段
func (fs Fields) Get(key string) (Property, bool) {
	for _, f := range fs {
		if f.Key == key {
			return f.Property, true
		}
	}
	return Property{}, false
}

func (fs Fields) Keys() []string {
	keys := make([]string, len(fs))
	for i, f := range fs {
		keys[i] = f.Key
	}
	return keys
}

// Builder 返回字段列表，每次编译只调用一次
type Builder func(f FieldBuilder) Fields

// FieldBuilder 每种逻辑类型一个入口，返回以物理列名初始化的新描述
type FieldBuilder struct{}

func (FieldBuilder) Integer(name string) Property   { return Integer(name) }
func (FieldBuilder) Real(name string) Property      { return Real(name) }
func (FieldBuilder) Text(name string) Property      { return Text(name) }
func (FieldBuilder) Blob(name string) Property      { return Blob(name) }
func (FieldBuilder) Timestamp(name string) Property { return Timestamp(name) }
func (FieldBuilder) Node(name string) Property      { return Node(name) }

// Enum 必须在创建时给出选项，options 为 nil 时按普通整数列处理
func (FieldBuilder) Enum(name string, options *EnumOptions) Property {
	return Enum(name, options)
}

func Integer(name string) Property   { return primitives[KindInteger].Init(name) }
func Real(name string) Property      { return primitives[KindReal].Init(name) }
func Text(name string) Property      { return primitives[KindText].Init(name) }
func Blob(name string) Property      { return primitives[KindBlob].Init(name) }
func Timestamp(name string) Property { return primitives[KindTimestamp].Init(name) }
func Node(name string) Property      { return primitives[KindNode].Init(name) }

func Enum(name string, options *EnumOptions) Property {
	return primitives[KindEnum].Init(name).WithConfig(Config{Options: options})
}

// Build 调用 builder 并校验结果
//
// builder 中因非法修饰产生的 *ConstraintViolation panic 会被转为错误返回，其他 panic 继续抛出；
// 重复的 key 返回 ErrDuplicateKey，非法的 enum 选项返回 ErrInvalidEnum
func Build(builder Builder) (fields Fields, err error) {
	if builder == nil {
		return nil, errors.New("builder cannot be nil")
	}

	defer func() {
		if r := recover(); r != nil {
			cv, ok := r.(*ConstraintViolation)
			if !ok {
				panic(r)
			}
			fields, err = nil, cv
		}
	}()

	fields = builder(FieldBuilder{})

	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f.Key]; ok {
			return nil, errors.Wrapf(ErrDuplicateKey, "key %q", f.Key)
		}
		seen[f.Key] = struct{}{}

		if err := f.Property.config.Options.Validate(); err != nil {
			return nil, errors.WithMessagef(err, "field %q", f.Key)
		}
	}

	return append(Fields(nil), fields...), nil
}

// ColumnName 物理列名，未设置时使用 key
func (f Field) ColumnName() string {
	if f.Property.name != "" {
		return f.Property.name
	}
	return f.Key
}
