package schema

import (
	"fmt"
	"go/format"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

var initialisms = map[string]string{
	"id": "ID", "url": "URL", "uri": "URI", "uuid": "UUID", "json": "JSON",
	"http": "HTTP", "api": "API", "sql": "SQL", "ip": "IP", "html": "HTML",
}

// GoName 将字段 key（camelCase 或 snake_case）转换为导出的 Go 标识符
func GoName(key string) string {
	var words []string
	var word []rune
	flush := func() {
		if len(word) > 0 {
			words = append(words, string(word))
			word = word[:0]
		}
	}
	for _, r := range key {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
		case unicode.IsUpper(r) && len(word) > 0 && !unicode.IsUpper(word[len(word)-1]):
			flush()
			word = append(word, r)
		default:
			word = append(word, r)
		}
	}
	flush()

	var b strings.Builder
	for _, w := range words {
		if v, ok := initialisms[strings.ToLower(w)]; ok {
			b.WriteString(v)
			continue
		}
		b.WriteString(capitalize(w))
	}
	name := b.String()
	if name == "" || !unicode.IsLetter([]rune(name)[0]) {
		name = "F" + name
	}
	return name
}

// GoType 描述对应的 Go 类型
// 可选字段使用指针，切片和 map 本身可以为 nil，不再加指针
func (p Property) GoType() string {
	var t string
	switch p.kind {
	case KindInteger:
		t = "int64"
	case KindReal:
		t = "float64"
	case KindText, KindEnum:
		t = "string"
	case KindBlob:
		t = "[]byte"
	case KindTimestamp:
		t = "time.Time"
	case KindNode:
		t = "map[string]any"
	default:
		t = "any"
	}

	if p.array {
		return "[]" + t
	}
	if p.optional && !strings.HasPrefix(t, "[]") && !strings.HasPrefix(t, "map[") && t != "any" {
		return "*" + t
	}
	return t
}

// GoStruct 生成 schema 对应的 Go 结构体声明，经过 gofmt 格式化
func (s *Schema) GoStruct(pkg string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n\n", pkg)

	needTime := false
	for _, f := range s.fields {
		if f.Property.kind == KindTimestamp {
			needTime = true
		}
	}
	if needTime {
		b.WriteString("import \"time\"\n\n")
	}

	owners := make(map[string]string, len(s.fields))
	for _, f := range s.fields {
		name := GoName(f.Key)
		if prev, ok := owners[name]; ok {
			return "", errors.Wrapf(ErrDuplicateKey, "keys %q and %q of schema %q both map to go field %s", prev, f.Key, s.name, name)
		}
		owners[name] = f.Key
	}

	typeName := GoName(s.name)
	fmt.Fprintf(&b, "// %s is generated from schema %q.\n", typeName, s.name)
	fmt.Fprintf(&b, "type %s struct {\n", typeName)
	for _, f := range s.fields {
		if f.Property.kind == KindEnum && f.Property.config.Options != nil {
			fmt.Fprintf(&b, "// one of: %s\n", strings.Join(f.Property.config.Options.Labels(), ", "))
		}
		fmt.Fprintf(&b, "%s %s `json:\"%s\" db:\"%s\"`\n", GoName(f.Key), f.Property.GoType(), f.Key, f.ColumnName())
	}
	b.WriteString("}\n")

	src, err := format.Source([]byte(b.String()))
	if err != nil {
		return "", errors.Wrapf(err, "format go struct for schema %q failed", s.name)
	}
	return string(src), nil
}
