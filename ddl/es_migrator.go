package ddl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/hatlonely/schemax/table"
	"github.com/pkg/errors"
)

type ESMigratorOptions struct {
	Addresses  []string      `cfg:"addresses" def:"http://localhost:9200"`
	Username   string        `cfg:"username"`
	Password   string        `cfg:"password"`
	APIKey     string        `cfg:"apiKey"`
	Timeout    time.Duration `cfg:"timeout" def:"30s"`
	MaxRetries int           `cfg:"maxRetries" def:"3"`
	Shards     int           `cfg:"shards" def:"1"`
	Replicas   int           `cfg:"replicas"`
}

// ESMigrator 每张表对应一个索引，索引不存在时创建，存在时追加字段映射
type ESMigrator struct {
	client   *elasticsearch.Client
	shards   int
	replicas int
}

func NewESMigratorWithOptions(opts *ESMigratorOptions) (*ESMigrator, error) {
	if opts == nil {
		return nil, errors.New("options cannot be nil")
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: opts.Addresses,
		Username:  opts.Username,
		Password:  opts.Password,
		APIKey:    opts.APIKey,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: opts.Timeout,
		},
		MaxRetries: opts.MaxRetries,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create elasticsearch client failed")
	}

	res, err := client.Info()
	if err != nil {
		return nil, errors.Wrap(err, "connect elasticsearch failed")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.Errorf("elasticsearch connection error: %s", res.String())
	}

	return &ESMigrator{client: client, shards: opts.Shards, replicas: opts.Replicas}, nil
}

func (m *ESMigrator) Migrate(ctx context.Context, tables ...*table.Table) error {
	for _, t := range tables {
		if err := m.migrate(ctx, t); err != nil {
			return errors.WithMessagef(err, "migrate index %s failed", t.Name())
		}
	}
	return nil
}

func (m *ESMigrator) migrate(ctx context.Context, t *table.Table) error {
	mapping := BuildESMapping(t)

	res, err := esapi.IndicesExistsRequest{Index: []string{t.Name()}}.Do(ctx, m.client)
	if err != nil {
		return errors.Wrap(err, "check index existence failed")
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusNotFound:
		return m.do(ctx, esapi.IndicesCreateRequest{
			Index: t.Name(),
			Body: m.body(map[string]any{
				"settings": map[string]any{
					"number_of_shards":   m.shards,
					"number_of_replicas": m.replicas,
				},
				"mappings": mapping,
			}),
		})
	case http.StatusOK:
		// 已存在的字段类型不能修改，只能追加新字段
		return m.do(ctx, esapi.IndicesPutMappingRequest{
			Index: []string{t.Name()},
			Body:  m.body(mapping),
		})
	}
	return errors.Errorf("unexpected response status %d", res.StatusCode)
}

func (m *ESMigrator) body(v map[string]any) *bytes.Reader {
	data, _ := json.Marshal(v)
	return bytes.NewReader(data)
}

func (m *ESMigrator) do(ctx context.Context, req esapi.Request) error {
	res, err := req.Do(ctx, m.client)
	if err != nil {
		return errors.Wrap(err, "elasticsearch request failed")
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.Errorf("elasticsearch request failed: %s", res.String())
	}
	return nil
}

func (m *ESMigrator) Close() error {
	return nil
}

// BuildESMapping 根据物理列生成索引映射
//
// timestamp 列映射为 epoch_second 格式的 date，主键和唯一的 text 列映射为 keyword，
// node 和数组列存储的是载荷字节，映射为 binary
func BuildESMapping(t *table.Table) map[string]any {
	properties := make(map[string]any, t.Len())
	for _, col := range t.Columns() {
		properties[col.Name] = esProperty(col)
	}
	return map[string]any{"properties": properties}
}

func esProperty(col table.Column) map[string]any {
	switch {
	case col.Mode == table.ModeTimestamp:
		return map[string]any{"type": "date", "format": "epoch_second"}
	case col.Type == table.TypeInteger:
		return map[string]any{"type": "long"}
	case col.Type == table.TypeReal:
		return map[string]any{"type": "double"}
	case col.Type == table.TypeText && (col.PrimaryKey || col.Unique):
		return map[string]any{"type": "keyword"}
	case col.Type == table.TypeText:
		return map[string]any{
			"type": "text",
			"fields": map[string]any{
				"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
			},
		}
	}
	return map[string]any{"type": "binary"}
}
