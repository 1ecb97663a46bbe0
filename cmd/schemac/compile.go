package main

import (
	"context"
	"strconv"
	"sync"

	"github.com/hatlonely/schemax/schema"
	"github.com/hatlonely/schemax/table"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"
)

// unit 一个 schema 文档的编译结果
type unit struct {
	file        string
	schema      *schema.Schema
	table       *table.Table
	fingerprint uint64
}

// catalog 按表名索引编译结果，用于解析文档之间的引用
type catalog struct {
	mu     sync.RWMutex
	tables map[string]*table.Table
}

func newCatalog() *catalog {
	return &catalog{tables: map[string]*table.Table{}}
}

func (c *catalog) add(t *table.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[t.Name()] = t
}

// resolve 引用在生成 DDL 时才求值，此时所有文档都已编译完成
func (c *catalog) resolve(tableName, key string) (schema.Target, bool) {
	c.mu.RLock()
	t, ok := c.tables[tableName]
	c.mu.RUnlock()
	if !ok {
		return schema.Target{}, false
	}
	if _, ok := t.Column(key); !ok {
		return schema.Target{}, false
	}
	return t.Ref(key), true
}

// compileAll 并发加载并编译所有文档，结果保持输入顺序，任一文档失败则整体失败
func compileAll(ctx context.Context, compiler *table.Compiler, files []string, workers int) ([]*unit, error) {
	units := make([]*unit, len(files))
	c := newCatalog()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			u, err := compileFile(compiler, c, file)
			if err != nil {
				return errors.WithMessagef(err, "compile %s failed", file)
			}
			units[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := map[string]string{}
	for _, u := range units {
		if prev, ok := seen[u.table.Name()]; ok {
			return nil, errors.Errorf("table %q declared in both %s and %s", u.table.Name(), prev, u.file)
		}
		seen[u.table.Name()] = u.file
	}

	// 所有表都已进入 catalog，引用可以解析
	for _, u := range units {
		u.fingerprint = fingerprint(u)
	}
	return units, nil
}

func compileFile(compiler *table.Compiler, c *catalog, file string) (*unit, error) {
	doc, err := schema.LoadDocument(file)
	if err != nil {
		return nil, err
	}

	builder := doc.Builder(c.resolve)
	s, err := schema.New(doc.Name, builder)
	if err != nil {
		return nil, err
	}
	t, err := compiler.Compile(doc.TableName(), builder)
	if err != nil {
		return nil, err
	}
	c.add(t)

	return &unit{file: file, schema: s, table: t}, nil
}

// fingerprint 表名也会影响 ddl 输出和迁移，和 schema 指纹一起计算
func fingerprint(u *unit) uint64 {
	h := xxh3.New()
	_, _ = h.WriteString(u.table.Name())
	_, _ = h.WriteString("\x00" + strconv.FormatUint(u.schema.Fingerprint(), 16))
	return h.Sum64()
}

// orderByReference 被引用的表排在引用它的表之前，其余保持输入顺序
func orderByReference(units []*unit) []*unit {
	index := map[string]*unit{}
	for _, u := range units {
		index[u.table.Name()] = u
	}

	var ordered []*unit
	visited := map[*unit]bool{}
	var visit func(u *unit)
	visit = func(u *unit) {
		if visited[u] {
			return
		}
		visited[u] = true
		for _, col := range u.table.Columns() {
			if col.Reference == nil {
				continue
			}
			if dep, ok := index[col.Reference().Table]; ok && dep != u {
				visit(dep)
			}
		}
		ordered = append(ordered, u)
	}
	for _, u := range units {
		visit(u)
	}
	return ordered
}
