package ddl

import (
	"context"
	"fmt"
	"time"

	"github.com/hatlonely/schemax/cfg"
	"github.com/hatlonely/schemax/table"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoMigratorOptions struct {
	URI        string        `cfg:"uri"`
	Host       string        `cfg:"host" def:"localhost"`
	Port       int           `cfg:"port" def:"27017"`
	Database   string        `cfg:"database" validate:"required"`
	Username   string        `cfg:"username"`
	Password   string        `cfg:"password"`
	AuthSource string        `cfg:"authSource" def:"admin"`
	Timeout    time.Duration `cfg:"timeout" def:"30s"`
}

// MongoMigrator 为每张表创建集合，设置 $jsonSchema 校验器和唯一索引
type MongoMigrator struct {
	client   *mongo.Client
	database *mongo.Database
	timeout  time.Duration
}

func NewMongoMigratorWithOptions(opts *MongoMigratorOptions) (*MongoMigrator, error) {
	if opts == nil {
		return nil, errors.New("options cannot be nil")
	}
	o := *opts
	if err := cfg.SetDefaults(&o); err != nil {
		return nil, err
	}
	if err := cfg.Validate(&o); err != nil {
		return nil, err
	}
	opts = &o

	uri := opts.URI
	if uri == "" {
		if opts.Username != "" && opts.Password != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d/%s?authSource=%s",
				opts.Username, opts.Password, opts.Host, opts.Port, opts.Database, opts.AuthSource)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d/%s", opts.Host, opts.Port, opts.Database)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongodb failed")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongodb failed")
	}

	return &MongoMigrator{
		client:   client,
		database: client.Database(opts.Database),
		timeout:  opts.Timeout,
	}, nil
}

func (m *MongoMigrator) Migrate(ctx context.Context, tables ...*table.Table) error {
	for _, t := range tables {
		if err := m.migrate(ctx, t); err != nil {
			return errors.WithMessagef(err, "migrate collection %s failed", t.Name())
		}
	}
	return nil
}

func (m *MongoMigrator) migrate(ctx context.Context, t *table.Table) error {
	validator := BuildMongoValidator(t)

	err := m.database.CreateCollection(ctx, t.Name(), options.CreateCollection().SetValidator(validator))
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists" {
		err = m.database.RunCommand(ctx, bson.D{
			{Key: "collMod", Value: t.Name()},
			{Key: "validator", Value: validator},
		}).Err()
	}
	if err != nil {
		return errors.Wrap(err, "create collection failed")
	}

	if indexes := BuildMongoIndexes(t); len(indexes) > 0 {
		if _, err := m.database.Collection(t.Name()).Indexes().CreateMany(ctx, indexes); err != nil {
			return errors.Wrap(err, "create indexes failed")
		}
	}
	return nil
}

func (m *MongoMigrator) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// BuildMongoValidator 根据物理列生成集合的 $jsonSchema 校验器
// NOT NULL 的列为必需字段，可空列额外允许 null，带编解码器的 enum 列限制为已声明的编码
func BuildMongoValidator(t *table.Table) bson.M {
	properties := bson.M{}
	var required []string

	for _, col := range t.Columns() {
		types := mongoTypes(col)
		if col.Nullable() {
			types = append(types, "null")
		} else {
			required = append(required, col.Name)
		}

		property := bson.M{"bsonType": types}
		if col.Codec != nil && !col.IsArray {
			var codes bson.A
			for _, code := range col.Codec.Codes() {
				codes = append(codes, code.Code)
			}
			if col.Nullable() {
				codes = append(codes, nil)
			}
			property["enum"] = codes
		}
		properties[col.Name] = property
	}

	schema := bson.M{"bsonType": "object", "properties": properties}
	if len(required) > 0 {
		schema["required"] = required
	}
	return bson.M{"$jsonSchema": schema}
}

func mongoTypes(col table.Column) []string {
	switch col.Type {
	case table.TypeInteger:
		return []string{"int", "long"}
	case table.TypeReal:
		return []string{"double", "int", "long"}
	case table.TypeText:
		return []string{"string"}
	}
	return []string{"binData"}
}

// BuildMongoIndexes 主键生成一个联合唯一索引，每个 UNIQUE 列生成一个唯一索引
func BuildMongoIndexes(t *table.Table) []mongo.IndexModel {
	var indexes []mongo.IndexModel

	if pk := t.PrimaryKey(); len(pk) > 0 {
		keys := bson.D{}
		for _, col := range pk {
			keys = append(keys, bson.E{Key: col.Name, Value: 1})
		}
		indexes = append(indexes, mongo.IndexModel{
			Keys:    keys,
			Options: options.Index().SetUnique(true).SetName("pk_" + t.Name()),
		})
	}

	for _, col := range t.Columns() {
		if !col.Unique {
			continue
		}
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: col.Name, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(fmt.Sprintf("uniq_%s_%s", t.Name(), col.Name)),
		})
	}
	return indexes
}
