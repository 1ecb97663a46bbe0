package schema

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// String 描述的文本形式，未设置列名时显示为 unnamed
func (p Property) String() string {
	name := p.name
	if name == "" {
		name = "unnamed"
	}
	return renderProperty(name, p)
}

// renderProperty 输出 kind("name") 或 enum 的多行选项块，后接固定顺序的修饰后缀
func renderProperty(name string, p Property) string {
	var b strings.Builder

	if options := p.config.Options; p.kind == KindEnum && options != nil {
		b.WriteString(`enum("` + name + "\",\n    {   options:\n")
		if options.IsMapping() {
			lines := make([]string, 0, options.Len())
			for _, c := range options.codes {
				lines = append(lines, "\t\t\t\t"+c.Label+": "+strconv.FormatInt(c.Code, 10)+",")
			}
			b.WriteString("\t\t\t{\n" + strings.Join(lines, "\n") + "\n\t\t\t}\n\t\t}\n   )")
		} else {
			labels := make([]string, 0, options.Len())
			for _, c := range options.codes {
				labels = append(labels, `"`+c.Label+`"`)
			}
			b.WriteString("\t\t\t[" + strings.Join(labels, ", ") + "]\n\t}\n   )")
		}
	} else {
		b.WriteString(string(p.kind) + `("` + name + `")`)
	}

	if p.identifier {
		b.WriteString(".identifier()")
	}
	if p.optional {
		b.WriteString(".optional()")
	}
	if p.unique {
		b.WriteString(".unique()")
	}
	if p.array {
		b.WriteString(".array()")
	}
	if p.HasDefault() {
		b.WriteString(".default(" + p.def.String() + ")")
	}

	return b.String()
}

// HostType 描述在接口声明中的类型
// 数组为 T[]（联合类型加括号），可选为 T | null
func (p Property) HostType() string {
	var t string
	union := false
	switch p.kind {
	case KindInteger:
		t = "bigint"
	case KindReal:
		t = "number"
	case KindText:
		t = "string"
	case KindBlob:
		t = "Uint8Array"
	case KindTimestamp:
		t = "Date"
	case KindNode:
		t = "object"
	case KindEnum:
		if options := p.config.Options; options != nil {
			labels := options.Labels()
			for i, label := range labels {
				labels[i] = `"` + label + `"`
			}
			t = strings.Join(labels, " | ")
			union = len(labels) > 1
		} else {
			t, union = "string | number", true
		}
	default:
		t = "unknown"
	}

	if p.array {
		if union {
			t = "(" + t + ")"
		}
		t += "[]"
	}
	if p.optional {
		t += " | null"
	}
	return t
}

// String schema 的规范文本形式
func (s *Schema) String() string {
	lines := make([]string, len(s.fields))
	for i, f := range s.fields {
		lines[i] = "   " + renderProperty(f.ColumnName(), f.Property)
	}
	return "Schema: " + s.name + "\n{\n" + strings.Join(lines, ",\n") + "\n}"
}

// Interface 接口声明，接口名为首字母大写的 schema 名，成员名为字段 key
func (s *Schema) Interface() string {
	lines := make([]string, len(s.fields))
	for i, f := range s.fields {
		lines[i] = "  " + f.Key + ": " + f.Property.HostType() + ";"
	}
	return "interface " + capitalize(s.name) + " {\n" + strings.Join(lines, "\n") + "\n}"
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
