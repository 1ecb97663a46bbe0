package schema

// Config 类型相关的配置，目前只有 enum 使用
type Config struct {
	Options *EnumOptions `json:"options,omitempty"`
}

// Target 外键引用的目标列
type Target struct {
	Table  string
	Column string
}

func (t Target) IsZero() bool {
	return t.Table == "" || t.Column == ""
}

func (t Target) String() string {
	return t.Table + "." + t.Column
}

// Reference 延迟求值的外键引用，schema 和 table 编译时都不会调用，
// 因此互相引用的表可以按任意顺序声明
type Reference func() Target

// Property 字段描述，不可变的值类型
//
// 所有修饰方法都返回新的 Property，接收者保持不变；kind 在整个链上不变
type Property struct {
	kind       Kind
	name       string
	config     Config
	optional   bool
	identifier bool
	unique     bool
	array      bool
	def        Default
	reference  Reference
}

// NewProperty 创建指定类型的原始描述，不校验 kind，通常应使用 FieldBuilder
func NewProperty(kind Kind) Property {
	return Property{kind: kind}
}

// Init 设置物理列名
func (p Property) Init(name string) Property {
	p.name = name
	return p
}

func (p Property) WithConfig(config Config) Property {
	p.config = config
	return p
}

// Default 设置默认值，value 可以是 Default（Now、EmptyArray、Literal(...)）或普通值
func (p Property) Default(value any) Property {
	if d, ok := value.(Default); ok {
		p.def = d
	} else {
		p.def = Literal(value)
	}
	return p
}

// Identifier 标记为主键，enum 会以 *ConstraintViolation panic
func (p Property) Identifier() Property {
	if p.kind == KindEnum {
		panic(&ConstraintViolation{Field: p.name, Kind: p.kind, Modifier: "identifier"})
	}
	p.identifier = true
	return p
}

func (p Property) Optional() Property {
	p.optional = true
	return p
}

// Unique 标记为唯一，enum 会以 *ConstraintViolation panic
func (p Property) Unique() Property {
	if p.kind == KindEnum {
		panic(&ConstraintViolation{Field: p.name, Kind: p.kind, Modifier: "unique"})
	}
	p.unique = true
	return p
}

// Array 多次调用效果相同，不会产生嵌套数组
func (p Property) Array() Property {
	p.array = true
	return p
}

func (p Property) References(reference Reference) Property {
	p.reference = reference
	return p
}

func (p Property) Kind() Kind            { return p.kind }
func (p Property) Name() string          { return p.name }
func (p Property) Config() Config        { return p.config }
func (p Property) IsOptional() bool      { return p.optional }
func (p Property) IsIdentifier() bool    { return p.identifier }
func (p Property) IsUnique() bool        { return p.unique }
func (p Property) IsArray() bool         { return p.array }
func (p Property) DefaultValue() Default { return p.def }

// HasDefault 是否设置了默认值，显式的零值也算
func (p Property) HasDefault() bool { return !p.def.IsAbsent() }

// Reference 外键引用，未设置时为 nil
func (p Property) Reference() Reference { return p.reference }
