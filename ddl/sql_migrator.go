package ddl

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/go-sql-driver/mysql"
	"github.com/hatlonely/schemax/table"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type SQLMigratorOptions struct {
	// 驱动：sqlite3, mysql, pgx
	Driver   string `cfg:"driver" def:"sqlite3" validate:"oneof=sqlite3 mysql pgx"`
	DSN      string `cfg:"dsn"`
	Host     string `cfg:"host" def:"localhost"`
	Port     int    `cfg:"port"`
	Database string `cfg:"database"`
	Username string `cfg:"username"`
	Password string `cfg:"password"`
	Charset  string `cfg:"charset" def:"utf8mb4"`
	MaxConns int    `cfg:"maxConns" def:"10"`
	MaxIdle  int    `cfg:"maxIdle" def:"5"`
}

// SQLMigrator 在一个事务中执行生成的建表语句
type SQLMigrator struct {
	db        *sql.DB
	generator *Generator
}

func NewSQLMigratorWithOptions(options *SQLMigratorOptions) (*SQLMigrator, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}

	dsn, err := sqlDSN(options)
	if err != nil {
		return nil, err
	}

	generator, err := NewGeneratorWithOptions(&GeneratorOptions{Dialect: driverDialect(options.Driver)})
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(options.Driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s failed", options.Driver)
	}
	db.SetMaxOpenConns(options.MaxConns)
	db.SetMaxIdleConns(options.MaxIdle)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "ping %s failed", options.Driver)
	}

	return &SQLMigrator{db: db, generator: generator}, nil
}

func sqlDSN(options *SQLMigratorOptions) (string, error) {
	if options.DSN != "" {
		return options.DSN, nil
	}
	switch options.Driver {
	case "mysql":
		port := options.Port
		if port == 0 {
			port = 3306
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
			options.Username, options.Password, options.Host, port, options.Database, options.Charset), nil
	case "pgx":
		port := options.Port
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(options.Username, options.Password),
			Host:   fmt.Sprintf("%s:%d", options.Host, port),
			Path:   "/" + options.Database,
		}
		return u.String(), nil
	case "sqlite3":
		if options.Database == "" {
			return "", errors.New("database is required for sqlite3")
		}
		return options.Database, nil
	}
	return "", errors.Errorf("unsupported driver %q", options.Driver)
}

func driverDialect(driver string) Dialect {
	switch driver {
	case "mysql":
		return DialectMySQL
	case "pgx", "postgres":
		return DialectPostgres
	}
	return DialectSQLite
}

func (m *SQLMigrator) Generator() *Generator {
	return m.generator
}

func (m *SQLMigrator) DB() *sql.DB {
	return m.db
}

func (m *SQLMigrator) Migrate(ctx context.Context, tables ...*table.Table) error {
	stmts, err := m.generator.CreateTables(tables...)
	if err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction failed")
	}
	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "create table %s failed", tables[i].Name())
		}
	}
	return errors.Wrap(tx.Commit(), "commit failed")
}

func (m *SQLMigrator) Close() error {
	return m.db.Close()
}
