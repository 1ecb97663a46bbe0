package schema

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrConstraintViolation 非法的修饰组合，例如 enum 上调用 Identifier() 或 Unique()
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrUnsupportedType 未知的字段类型
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrDuplicateKey 同一个 schema 中出现重复的字段 key
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInvalidEnum enum 选项中存在重复的标签、重复的编码或负数编码
	ErrInvalidEnum = errors.New("invalid enum options")
)

// ConstraintViolation 记录违反约束的字段和修饰
type ConstraintViolation struct {
	Field    string
	Kind     Kind
	Modifier string
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("%s: %s property %q cannot be %s", ErrConstraintViolation, e.Kind, e.Field, e.Modifier)
}

func (e *ConstraintViolation) Is(target error) bool {
	return target == ErrConstraintViolation
}
