package ddl

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/hatlonely/schemax/cfg"
	"github.com/hatlonely/schemax/table"
	"github.com/pkg/errors"
)

// ErrUnresolvedReference 外键引用的目标表或目标列为空
var ErrUnresolvedReference = errors.New("unresolved reference")

// Dialect SQL 方言
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

type GeneratorOptions struct {
	Dialect Dialect `cfg:"dialect" def:"sqlite3" validate:"oneof=sqlite3 mysql postgres"`
	// 为 true 时不生成 IF NOT EXISTS，表已存在时执行失败
	Strict bool `cfg:"strict"`
}

// Generator 根据物理列生成建表语句，不访问数据库
type Generator struct {
	dialect Dialect
	strict  bool
}

func NewGeneratorWithOptions(options *GeneratorOptions) (*Generator, error) {
	o := GeneratorOptions{}
	if options != nil {
		o = *options
	}
	if err := cfg.SetDefaults(&o); err != nil {
		return nil, err
	}
	if err := cfg.Validate(&o); err != nil {
		return nil, err
	}
	return &Generator{dialect: o.Dialect, strict: o.Strict}, nil
}

func (g *Generator) Dialect() Dialect {
	return g.dialect
}

// CreateTable 生成 CREATE TABLE 语句
// 列约束依次为 NOT NULL、UNIQUE、DEFAULT，主键和外键作为表级约束追加在列之后
func (g *Generator) CreateTable(t *table.Table) (string, error) {
	if t == nil {
		return "", errors.New("table cannot be nil")
	}

	var defs []string
	for _, col := range t.Columns() {
		def, err := g.columnDefinition(col)
		if err != nil {
			return "", errors.WithMessagef(err, "table %q column %q", t.Name(), col.Name)
		}
		defs = append(defs, def)
	}

	if pk := t.PrimaryKey(); len(pk) > 0 {
		names := make([]string, len(pk))
		for i, col := range pk {
			names[i] = g.quote(col.Name)
		}
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(names, ", ")))
	}

	for _, col := range t.Columns() {
		if col.Reference == nil {
			continue
		}
		target := col.Reference()
		if target.IsZero() {
			return "", errors.Wrapf(ErrUnresolvedReference, "table %q column %q", t.Name(), col.Name)
		}
		defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			g.quote(col.Name), g.quote(target.Table), g.quote(target.Column)))
	}

	create := "CREATE TABLE "
	if !g.strict {
		create += "IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s (\n  %s\n)", create, g.quote(t.Name()), strings.Join(defs, ",\n  ")), nil
}

// CreateTables 按顺序生成多个建表语句，被引用的表应排在前面
func (g *Generator) CreateTables(tables ...*table.Table) ([]string, error) {
	stmts := make([]string, 0, len(tables))
	for _, t := range tables {
		stmt, err := g.CreateTable(t)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (g *Generator) DropTable(t *table.Table) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", g.quote(t.Name()))
}

func (g *Generator) columnDefinition(col table.Column) (string, error) {
	parts := []string{g.quote(col.Name), g.columnType(col)}
	if col.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if col.Unique {
		parts = append(parts, "UNIQUE")
	}
	if col.HasDefault {
		def, err := g.defaultValue(col)
		if err != nil {
			return "", err
		}
		parts = append(parts, "DEFAULT "+def)
	}
	return strings.Join(parts, " "), nil
}

func (g *Generator) columnType(col table.Column) string {
	switch g.dialect {
	case DialectMySQL:
		switch col.Type {
		case table.TypeInteger:
			return "BIGINT"
		case table.TypeReal:
			return "DOUBLE"
		case table.TypeText:
			// mysql 的 TEXT 列不能直接作为主键或唯一索引
			if col.PrimaryKey || col.Unique {
				return "VARCHAR(255)"
			}
			return "TEXT"
		default:
			return "LONGBLOB"
		}
	case DialectPostgres:
		switch col.Type {
		case table.TypeInteger:
			return "BIGINT"
		case table.TypeReal:
			return "DOUBLE PRECISION"
		case table.TypeText:
			return "TEXT"
		default:
			return "BYTEA"
		}
	}

	switch col.Type {
	case table.TypeInteger:
		return "INTEGER"
	case table.TypeReal:
		return "REAL"
	case table.TypeText:
		return "TEXT"
	}
	return "BLOB"
}

// defaultValue Now 解析为当前 unix 秒的表达式，EmptyArray 解析为列载荷格式下的空数组
func (g *Generator) defaultValue(col table.Column) (string, error) {
	switch {
	case col.Default.IsNow():
		return g.nowExpr(), nil
	case col.Default.IsEmptyArray():
		payload, err := col.EmptyPayload()
		if err != nil {
			return "", errors.WithMessage(err, "encode empty array failed")
		}
		if payload == nil {
			return g.expr(g.stringLiteral("[]"), col), nil
		}
		return g.expr(g.bytesLiteral(payload), col), nil
	}

	switch v := col.DefaultExpr.(type) {
	case table.SQLExpr:
		return string(v), nil
	case string:
		return g.expr(g.stringLiteral(v), col), nil
	case []byte:
		return g.expr(g.bytesLiteral(v), col), nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case int, int8, int16, int32, uint, uint8, uint16, uint32, uint64, float32:
		return fmt.Sprint(v), nil
	case nil:
		return "NULL", nil
	}
	return "", errors.Errorf("unsupported default value %v (%T)", col.DefaultExpr, col.DefaultExpr)
}

func (g *Generator) nowExpr() string {
	switch g.dialect {
	case DialectMySQL:
		return "(UNIX_TIMESTAMP())"
	case DialectPostgres:
		return "(EXTRACT(EPOCH FROM CURRENT_TIMESTAMP)::BIGINT)"
	}
	return "(CAST(strftime('%s', 'now') AS INTEGER))"
}

// expr mysql 的 TEXT、BLOB 列只接受表达式形式的默认值
func (g *Generator) expr(literal string, col table.Column) string {
	if g.dialect == DialectMySQL && (col.Type == table.TypeBlob || g.columnType(col) == "TEXT") {
		return "(" + literal + ")"
	}
	return literal
}

func (g *Generator) stringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (g *Generator) bytesLiteral(b []byte) string {
	if g.dialect == DialectPostgres {
		return `'\x` + hex.EncodeToString(b) + `'::bytea`
	}
	return "X'" + strings.ToUpper(hex.EncodeToString(b)) + "'"
}

func (g *Generator) quote(name string) string {
	if g.dialect == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
