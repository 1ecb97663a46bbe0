// schemac 编译 schema 文档，输出文本描述、接口声明、Go 结构体、JSON 或建表语句
//
//	schemac -format ddl -dialect mysql users.yaml posts.yaml
//	schemac -config schemac.yaml -migrate -watch
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hatlonely/schemax/ddl"
	"github.com/hatlonely/schemax/log"
	"github.com/hatlonely/schemax/table"
	"github.com/pkg/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "schemac: %+v\n", err)
		os.Exit(1)
	}
}

type app struct {
	options  *Options
	compiler *table.Compiler
	migrator ddl.Migrator
	logger   log.Logger
	stdout   io.Writer

	// 上一次输出时每个文档的指纹
	fingerprints map[string]uint64
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	options, err := parseOptions(args)
	if err != nil {
		return err
	}

	logger, err := log.NewLoggerWithOptions(options.Logger)
	if err != nil {
		return err
	}

	tableOptions := options.Table
	if tableOptions.Logger == nil {
		tableOptions.Logger = options.Logger
	}
	compiler, err := table.NewCompilerWithOptions(&tableOptions)
	if err != nil {
		return err
	}

	a := &app{options: options, compiler: compiler, logger: logger, stdout: stdout}

	if options.Migrate {
		if a.migrator, err = ddl.NewMigratorWithOptions(options.Migrator); err != nil {
			return err
		}
		defer a.migrator.Close()
	}

	if err := a.build(ctx); err != nil {
		if !options.Watch {
			return err
		}
		logger.Error("build failed", "error", err)
	}
	if !options.Watch {
		return nil
	}

	watcher, err := NewWatcherWithOptions(&WatcherOptions{
		Files:    options.Schemas,
		Debounce: options.Debounce,
		Logger:   options.Logger,
	})
	if err != nil {
		return err
	}
	if err := watcher.OnChange(func([]string) error { return a.build(ctx) }); err != nil {
		return err
	}
	logger.Info("watching schema documents", "files", options.Schemas)

	<-ctx.Done()
	return watcher.Close()
}

// build 编译所有文档；所有文档的指纹都未变化时跳过输出和迁移
func (a *app) build(ctx context.Context) error {
	units, err := compileAll(ctx, a.compiler, a.options.Schemas, a.options.Workers)
	if err != nil {
		return err
	}

	fingerprints := make(map[string]uint64, len(units))
	changed := len(a.fingerprints) != len(units)
	for _, u := range units {
		fingerprints[u.file] = u.fingerprint
		if prev, ok := a.fingerprints[u.file]; !ok || prev != u.fingerprint {
			changed = true
		}
	}
	if !changed {
		a.logger.Info("schemas unchanged, skip")
		return nil
	}

	files, doc, err := render(units, a.options)
	if err != nil {
		return err
	}
	if err := write(files, doc, a.options.Output, a.stdout); err != nil {
		return err
	}

	if a.migrator != nil {
		if err := a.migrator.Migrate(ctx, tablesOf(orderByReference(units))...); err != nil {
			return errors.WithMessage(err, "migrate failed")
		}
	}

	a.fingerprints = fingerprints
	a.logger.Info("schemas compiled", "count", len(units), "format", a.options.Format)
	return nil
}
