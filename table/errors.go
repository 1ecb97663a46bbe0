package table

import "github.com/pkg/errors"

var (
	// ErrUnknownEnumValue 标签或编码不在 enum 选项中
	ErrUnknownEnumValue = errors.New("unknown enum value")
	// ErrInvalidValue 值的类型与列不匹配
	ErrInvalidValue = errors.New("invalid value")
	// ErrDuplicateColumn 两个字段映射到同一个物理列名
	ErrDuplicateColumn = errors.New("duplicate column")
)
