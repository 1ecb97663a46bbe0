package table

import (
	"github.com/hatlonely/schemax/schema"
	"github.com/pkg/errors"
)

// EnumCodec enum 标签和整数编码之间的双向映射
type EnumCodec struct {
	codes   []schema.EnumCode
	forward map[string]int64
	reverse map[int64]string
}

// NewEnumCodec Labels 形式按下标编码，Codes 形式使用声明的编码
func NewEnumCodec(options *schema.EnumOptions) (*EnumCodec, error) {
	if options == nil {
		return nil, errors.Wrap(schema.ErrInvalidEnum, "options cannot be nil")
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}

	codes := options.Codes()
	c := &EnumCodec{
		codes:   codes,
		forward: make(map[string]int64, len(codes)),
		reverse: make(map[int64]string, len(codes)),
	}
	for _, code := range codes {
		c.forward[code.Label] = code.Code
		c.reverse[code.Code] = code.Label
	}
	return c, nil
}

// Encode 标签 -> 编码
func (c *EnumCodec) Encode(label string) (int64, error) {
	code, ok := c.forward[label]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownEnumValue, "label %q", label)
	}
	return code, nil
}

// Decode 编码 -> 标签
func (c *EnumCodec) Decode(code int64) (string, error) {
	label, ok := c.reverse[code]
	if !ok {
		return "", errors.Wrapf(ErrUnknownEnumValue, "code %d", code)
	}
	return label, nil
}

func (c *EnumCodec) Codes() []schema.EnumCode {
	return append([]schema.EnumCode(nil), c.codes...)
}

func (c *EnumCodec) Labels() []string {
	labels := make([]string, len(c.codes))
	for i, code := range c.codes {
		labels[i] = code.Label
	}
	return labels
}
