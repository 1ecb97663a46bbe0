package ddl

import (
	"context"
	"fmt"
	"time"

	"github.com/hatlonely/schemax/log"
	"github.com/hatlonely/schemax/ref"
	"github.com/hatlonely/schemax/table"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ObservableMigratorOptions struct {
	// 被包装的 Migrator 配置
	Migrator *ref.TypeOptions `cfg:"migrator" validate:"required"`

	Logger *ref.TypeOptions `cfg:"logger"`

	EnableMetrics bool `cfg:"enableMetrics" def:"true"`
	EnableLogging bool `cfg:"enableLogging" def:"true"`
	EnableTracing bool `cfg:"enableTracing" def:"false"`

	// 组件名称，作为指标名前缀、日志的 component 字段和 span 的 component 属性
	Name string `cfg:"name" def:"migrator" validate:"required"`
}

// MigratorMetrics 迁移相关的 prometheus 指标
type MigratorMetrics struct {
	migrations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	tables     *prometheus.CounterVec
	active     prometheus.Gauge
}

// NewMigratorMetrics 创建并注册到默认 registry，同名指标已注册时复用已有的指标
func NewMigratorMetrics(name string) *MigratorMetrics {
	return &MigratorMetrics{
		migrations: register(prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: name + "_migrations_total",
			Help: "Total number of schema migrations",
		}, []string{"operation", "status"})),
		duration: register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name + "_migration_duration_seconds",
			Help:    "Duration of schema migrations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}, []string{"operation"})),
		tables: register(prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: name + "_migrated_tables_total",
			Help: "Total number of tables passed to migrations",
		}, []string{"status"})),
		active: register(prometheus.NewGauge(prometheus.GaugeOpts{
			Name: name + "_active_migrations",
			Help: "Number of running schema migrations",
		})),
	}
}

func register[C prometheus.Collector](c C) C {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObservableMigrator 为任意 Migrator 添加指标、日志和链路追踪
type ObservableMigrator struct {
	migrator Migrator

	logger  log.Logger
	metrics *MigratorMetrics
	tracer  trace.Tracer
	name    string
}

func NewObservableMigratorWithOptions(options *ObservableMigratorOptions) (*ObservableMigrator, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}

	migrator, err := NewMigratorWithOptions(options.Migrator)
	if err != nil {
		return nil, errors.WithMessage(err, "create underlying migrator failed")
	}

	obs := &ObservableMigrator{migrator: migrator, name: options.Name}

	if options.EnableLogging {
		l, err := log.NewLoggerWithOptions(options.Logger)
		if err != nil {
			_ = migrator.Close()
			return nil, errors.WithMessage(err, "create logger failed")
		}
		obs.logger = l.WithGroup("observableMigrator")
	}
	if options.EnableMetrics {
		obs.metrics = NewMigratorMetrics(options.Name)
	}
	if options.EnableTracing {
		obs.tracer = otel.Tracer(fmt.Sprintf("ddl.%s", options.Name))
	}

	return obs, nil
}

func (obs *ObservableMigrator) Migrate(ctx context.Context, tables ...*table.Table) error {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name()
	}
	return obs.observe(ctx, "migrate", names, func(ctx context.Context) error {
		return obs.migrator.Migrate(ctx, tables...)
	})
}

func (obs *ObservableMigrator) Close() error {
	return obs.observe(context.Background(), "close", nil, func(ctx context.Context) error {
		return obs.migrator.Close()
	})
}

func (obs *ObservableMigrator) observe(ctx context.Context, operation string, tables []string, fn func(context.Context) error) error {
	start := time.Now()

	var span trace.Span
	if obs.tracer != nil {
		ctx, span = obs.tracer.Start(ctx, fmt.Sprintf("ddl.%s", operation),
			trace.WithAttributes(
				attribute.String("component", obs.name),
				attribute.String("operation", operation),
				attribute.StringSlice("tables", tables),
			),
		)
		defer span.End()
	}

	if obs.metrics != nil {
		obs.metrics.active.Inc()
		defer obs.metrics.active.Dec()
	}

	err := fn(ctx)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}

	if span != nil {
		span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	if obs.metrics != nil {
		obs.metrics.migrations.WithLabelValues(operation, status).Inc()
		obs.metrics.duration.WithLabelValues(operation).Observe(duration.Seconds())
		if len(tables) > 0 {
			obs.metrics.tables.WithLabelValues(status).Add(float64(len(tables)))
		}
	}

	if obs.logger != nil {
		if err != nil {
			obs.logger.ErrorContext(ctx, "migration failed",
				"component", obs.name,
				"operation", operation,
				"tables", tables,
				"duration_ms", duration.Milliseconds(),
				"error", err.Error(),
			)
		} else {
			obs.logger.InfoContext(ctx, "migration completed",
				"component", obs.name,
				"operation", operation,
				"tables", tables,
				"duration_ms", duration.Milliseconds(),
			)
		}
	}

	return err
}
