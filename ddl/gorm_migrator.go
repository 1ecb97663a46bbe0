package ddl

import (
	"context"

	"github.com/hatlonely/schemax/table"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormMigratorOptions struct {
	// 驱动：sqlite, mysql
	Driver string `cfg:"driver" def:"sqlite" validate:"oneof=sqlite mysql"`
	DSN    string `cfg:"dsn" validate:"required"`
}

// GormMigrator 通过 gorm 执行生成的建表语句
type GormMigrator struct {
	db        *gorm.DB
	generator *Generator
}

func NewGormMigratorWithOptions(options *GormMigratorOptions) (*GormMigrator, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}

	config := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	var dialector gorm.Dialector
	var dialect Dialect
	switch options.Driver {
	case "sqlite":
		dialector, dialect = sqlite.Open(options.DSN), DialectSQLite
	case "mysql":
		dialector, dialect = mysql.Open(options.DSN), DialectMySQL
	default:
		return nil, errors.Errorf("unsupported gorm driver %q", options.Driver)
	}

	generator, err := NewGeneratorWithOptions(&GeneratorOptions{Dialect: dialect})
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, errors.Wrapf(err, "open gorm %s failed", options.Driver)
	}

	return &GormMigrator{db: db, generator: generator}, nil
}

func (m *GormMigrator) DB() *gorm.DB {
	return m.db
}

func (m *GormMigrator) Migrate(ctx context.Context, tables ...*table.Table) error {
	stmts, err := m.generator.CreateTables(tables...)
	if err != nil {
		return err
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, stmt := range stmts {
			if err := tx.Exec(stmt).Error; err != nil {
				return errors.Wrapf(err, "create table %s failed", tables[i].Name())
			}
		}
		return nil
	})
}

func (m *GormMigrator) Close() error {
	db, err := m.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql db failed")
	}
	return db.Close()
}
