package main

import (
	"flag"
	"strings"
	"time"

	"github.com/hatlonely/schemax/cfg"
	"github.com/hatlonely/schemax/ddl"
	"github.com/hatlonely/schemax/ref"
	"github.com/hatlonely/schemax/serializer"
	"github.com/hatlonely/schemax/table"
	"github.com/pkg/errors"
)

// Options schemac 的配置，可以来自配置文件，命令行参数覆盖文件中的值
type Options struct {
	// schema 文档路径
	Schemas []string `cfg:"schemas"`

	// 输出格式：text, interface, go, json, ddl
	Format string `cfg:"format" def:"text" validate:"oneof=text interface go json ddl"`
	// 输出路径，为空时输出到 stdout；go 格式下为目录，每个 schema 一个文件
	Output string `cfg:"output"`
	// go 格式的包名
	Package string `cfg:"package" def:"model" validate:"required"`

	Workers int `cfg:"workers" def:"4" validate:"min=1"`

	Table table.Options        `cfg:"table"`
	DDL   ddl.GeneratorOptions `cfg:"ddl"`

	// 配置后编译完成时同步到存储后端
	Migrate  bool             `cfg:"migrate"`
	Migrator *ref.TypeOptions `cfg:"migrator"`

	// 监听 schema 文档变化并重新编译
	Watch    bool          `cfg:"watch"`
	Debounce time.Duration `cfg:"debounce" def:"200ms"`

	Logger *ref.TypeOptions `cfg:"logger"`
}

// parseOptions 解析命令行，-config 指定的文件先加载，随后应用显式设置的参数
func parseOptions(args []string) (*Options, error) {
	fs := flag.NewFlagSet("schemac", flag.ContinueOnError)
	var (
		config   = fs.String("config", "", "config file (json, yaml, toml, ini)")
		format   = fs.String("format", "text", "output format: text, interface, go, json, ddl")
		output   = fs.String("o", "", "output file, or directory for go format")
		pkg      = fs.String("package", "model", "package name for go format")
		workers  = fs.Int("workers", 4, "number of schemas compiled concurrently")
		dialect  = fs.String("dialect", "sqlite3", "ddl dialect: sqlite3, mysql, postgres")
		backend  = fs.String("backend", "generic", "default value backend: generic, sql")
		payload  = fs.String("payload", "json", "payload format: "+strings.Join(formatNames(), ", "))
		migrate  = fs.Bool("migrate", false, "migrate compiled tables through the configured migrator")
		watch    = fs.Bool("watch", false, "recompile when schema documents change")
		debounce = fs.Duration("debounce", 200*time.Millisecond, "delay before recompiling after a change")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	options := &Options{}
	if *config != "" {
		if err := cfg.Load(*config, options); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			options.Format = *format
		case "o":
			options.Output = *output
		case "package":
			options.Package = *pkg
		case "workers":
			options.Workers = *workers
		case "dialect":
			options.DDL.Dialect = ddl.Dialect(*dialect)
		case "backend":
			options.Table.Backend = table.Backend(*backend)
		case "payload":
			options.Table.Payload = serializer.Format(*payload)
		case "migrate":
			options.Migrate = *migrate
		case "watch":
			options.Watch = *watch
		case "debounce":
			options.Debounce = *debounce
		}
	})
	options.Schemas = append(options.Schemas, fs.Args()...)

	if err := cfg.SetDefaults(options); err != nil {
		return nil, err
	}
	if err := cfg.Validate(options); err != nil {
		return nil, err
	}
	if len(options.Schemas) == 0 {
		return nil, errors.New("no schema document given")
	}
	if options.Migrate && options.Migrator == nil {
		return nil, errors.New("-migrate requires a migrator in the config file")
	}
	return options, nil
}

func formatNames() []string {
	var names []string
	for _, f := range serializer.Formats() {
		names = append(names, string(f))
	}
	return names
}
