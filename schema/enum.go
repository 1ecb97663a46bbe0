package schema

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// EnumCode 标签和编码
type EnumCode struct {
	Label string
	Code  int64
}

func Code(label string, code int64) EnumCode {
	return EnumCode{Label: label, Code: code}
}

// EnumOptions enum 的选项，两种形式：
//   - Labels: 有序标签列表，编码为下标 0..n-1
//   - Codes: 有序的 标签 -> 编码 映射，编码非负，可以不连续
//
// 创建后不可修改
type EnumOptions struct {
	codes   []EnumCode
	mapping bool
}

func Labels(labels ...string) *EnumOptions {
	codes := make([]EnumCode, len(labels))
	for i, label := range labels {
		codes[i] = EnumCode{Label: label, Code: int64(i)}
	}
	return &EnumOptions{codes: codes}
}

func Codes(codes ...EnumCode) *EnumOptions {
	return &EnumOptions{codes: append([]EnumCode(nil), codes...), mapping: true}
}

// IsMapping 是否为显式的 标签 -> 编码 映射
func (o *EnumOptions) IsMapping() bool {
	return o != nil && o.mapping
}

// Labels 按声明顺序返回标签
func (o *EnumOptions) Labels() []string {
	if o == nil {
		return nil
	}
	labels := make([]string, len(o.codes))
	for i, c := range o.codes {
		labels[i] = c.Label
	}
	return labels
}

// Codes 按声明顺序返回 标签 -> 编码，Labels 形式的编码为下标
func (o *EnumOptions) Codes() []EnumCode {
	if o == nil {
		return nil
	}
	return append([]EnumCode(nil), o.codes...)
}

func (o *EnumOptions) Len() int {
	if o == nil {
		return 0
	}
	return len(o.codes)
}

// Validate 检查重复标签、重复编码和负数编码
func (o *EnumOptions) Validate() error {
	if o == nil {
		return nil
	}
	labels := map[string]struct{}{}
	codes := map[int64]string{}
	for _, c := range o.codes {
		if _, ok := labels[c.Label]; ok {
			return errors.Wrapf(ErrInvalidEnum, "duplicate label %q", c.Label)
		}
		if c.Code < 0 {
			return errors.Wrapf(ErrInvalidEnum, "negative code %d for label %q", c.Code, c.Label)
		}
		if other, ok := codes[c.Code]; ok {
			return errors.Wrapf(ErrInvalidEnum, "labels %q and %q share code %d", other, c.Label, c.Code)
		}
		labels[c.Label] = struct{}{}
		codes[c.Code] = c.Label
	}
	return nil
}

// MarshalJSON Labels 形式输出数组，Codes 形式输出按声明顺序排列的对象
func (o *EnumOptions) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	if !o.mapping {
		return json.Marshal(o.Labels())
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range o.codes {
		if i > 0 {
			buf.WriteByte(',')
		}
		label, err := json.Marshal(c.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(label)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(c.Code, 10))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
