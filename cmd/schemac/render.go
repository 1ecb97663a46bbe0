package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hatlonely/schemax/ddl"
	"github.com/hatlonely/schemax/schema"
	"github.com/hatlonely/schemax/table"
	"github.com/pkg/errors"
)

// render 按格式渲染编译结果，go 格式返回 文件名 -> 源码，其他格式返回单个文档
func render(units []*unit, options *Options) (map[string]string, string, error) {
	switch options.Format {
	case "text", "interface":
		parts := make([]string, len(units))
		for i, u := range units {
			if options.Format == "text" {
				parts[i] = u.schema.String()
			} else {
				parts[i] = u.schema.Interface()
			}
		}
		return nil, strings.Join(parts, "\n\n") + "\n", nil
	case "go":
		files := map[string]string{}
		for _, u := range units {
			src, err := u.schema.GoStruct(options.Package)
			if err != nil {
				return nil, "", err
			}
			files[u.table.Name()+".go"] = src
		}
		return files, "", nil
	case "json":
		schemas := make([]*schema.Schema, len(units))
		for i, u := range units {
			schemas[i] = u.schema
		}
		data, err := json.MarshalIndent(schemas, "", "  ")
		if err != nil {
			return nil, "", errors.Wrap(err, "marshal schemas failed")
		}
		return nil, string(data) + "\n", nil
	case "ddl":
		generator, err := ddl.NewGeneratorWithOptions(&options.DDL)
		if err != nil {
			return nil, "", err
		}
		stmts, err := generator.CreateTables(tablesOf(orderByReference(units))...)
		if err != nil {
			return nil, "", err
		}
		return nil, strings.Join(stmts, ";\n\n") + ";\n", nil
	}
	return nil, "", errors.Errorf("unsupported format %q", options.Format)
}

func tablesOf(units []*unit) []*table.Table {
	tables := make([]*table.Table, len(units))
	for i, u := range units {
		tables[i] = u.table
	}
	return tables
}

// write go 格式写入 output 目录，其他格式写入 output 文件；output 为空时写入 stdout
func write(files map[string]string, doc string, output string, stdout io.Writer) error {
	if files == nil {
		if output == "" {
			_, err := io.WriteString(stdout, doc)
			return err
		}
		return errors.Wrapf(os.WriteFile(output, []byte(doc), 0644), "write %s failed", output)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	if output == "" {
		for _, name := range names {
			if _, err := io.WriteString(stdout, "// "+name+"\n"+files[name]+"\n"); err != nil {
				return err
			}
		}
		return nil
	}

	if err := os.MkdirAll(output, 0755); err != nil {
		return errors.Wrapf(err, "create directory %s failed", output)
	}
	for _, name := range names {
		filename := filepath.Join(output, name)
		if err := os.WriteFile(filename, []byte(files[name]), 0644); err != nil {
			return errors.Wrapf(err, "write %s failed", filename)
		}
	}
	return nil
}
