package ddl

import (
	"context"

	"github.com/hatlonely/schemax/ref"
	"github.com/hatlonely/schemax/table"
	"github.com/pkg/errors"
)

// Migrator 将编译好的表同步到存储后端
type Migrator interface {
	// Migrate 按顺序创建或更新表，已存在的表不会被删除
	Migrate(ctx context.Context, tables ...*table.Table) error
	Close() error
}

// NewMigratorWithOptions 根据 TypeOptions 创建 Migrator，Namespace 为空时默认为 ddl 包
func NewMigratorWithOptions(options *ref.TypeOptions) (Migrator, error) {
	if options == nil {
		return nil, errors.New("migrator options cannot be nil")
	}
	o := *options
	if o.Namespace == "" {
		o.Namespace = Namespace
	}
	m, err := ref.NewWithTypeOptions[Migrator](&o)
	if err != nil {
		return nil, errors.WithMessagef(err, "create migrator %s failed", o.Type)
	}
	return m, nil
}
