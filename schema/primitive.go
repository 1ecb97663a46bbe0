package schema

import "github.com/pkg/errors"

// 每种逻辑类型的原型描述，FieldBuilder 从这里开始构建字段
var primitives = func() map[Kind]Property {
	m := make(map[Kind]Property, len(kinds))
	for _, k := range kinds {
		m[k] = NewProperty(k)
	}
	return m
}()

// Primitive 返回 kind 的原型描述
func Primitive(kind Kind) (Property, error) {
	p, ok := primitives[kind]
	if !ok {
		return Property{}, errors.Wrapf(ErrUnsupportedType, "kind %q", kind)
	}
	return p, nil
}

// Primitives 按固定顺序返回所有原型描述
func Primitives() []Property {
	ps := make([]Property, len(kinds))
	for i, k := range kinds {
		ps[i] = primitives[k]
	}
	return ps
}
