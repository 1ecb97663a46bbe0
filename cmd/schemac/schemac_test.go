package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hatlonely/schemax/ddl"
	"github.com/hatlonely/schemax/log"
	"github.com/hatlonely/schemax/table"
	. "github.com/smartystreets/goconvey/convey"
)

const usersDocument = `
name: user
table: users
fields:
  - key: id
    kind: integer
    identifier: true
  - key: email
    kind: text
    unique: true
  - key: role
    kind: enum
    labels: [admin, member]
    default: member
`

const postsDocument = `
name: post
table: posts
fields:
  - key: id
    kind: integer
    identifier: true
  - key: author
    name: author_id
    kind: integer
    references: users.id
  - key: tags
    kind: text
    array: true
    defaultMarker: emptyArray
`

func writeFile(t *testing.T, dir, name, content string) string {
	filename := filepath.Join(dir, name)
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestParseOptions(t *testing.T) {
	Convey("parseOptions", t, func() {
		dir := t.TempDir()

		Convey("命令行参数", func() {
			options, err := parseOptions([]string{"-format", "ddl", "-dialect", "mysql", "-payload", "msgpack", "a.yaml", "b.yaml"})
			So(err, ShouldBeNil)
			So(options.Format, ShouldEqual, "ddl")
			So(options.DDL.Dialect, ShouldEqual, ddl.DialectMySQL)
			So(string(options.Table.Payload), ShouldEqual, "msgpack")
			So(options.Table.Backend, ShouldEqual, table.BackendGeneric)
			So(options.Workers, ShouldEqual, 4)
			So(options.Schemas, ShouldResemble, []string{"a.yaml", "b.yaml"})
		})

		Convey("命令行覆盖配置文件", func() {
			config := writeFile(t, dir, "schemac.yaml", `
schemas: [a.yaml]
format: json
workers: 2
ddl:
  dialect: postgres
`)
			options, err := parseOptions([]string{"-config", config, "-format", "interface", "b.yaml"})
			So(err, ShouldBeNil)
			So(options.Format, ShouldEqual, "interface")
			So(options.Workers, ShouldEqual, 2)
			So(options.DDL.Dialect, ShouldEqual, ddl.DialectPostgres)
			So(options.Schemas, ShouldResemble, []string{"a.yaml", "b.yaml"})
		})

		Convey("非法参数", func() {
			_, err := parseOptions([]string{"-format", "xml", "a.yaml"})
			So(err, ShouldNotBeNil)
			_, err = parseOptions([]string{})
			So(err, ShouldNotBeNil)
			_, err = parseOptions([]string{"-migrate", "a.yaml"})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("run", t, func() {
		dir := t.TempDir()
		users := writeFile(t, dir, "users.yaml", usersDocument)
		posts := writeFile(t, dir, "posts.yaml", postsDocument)
		ctx := context.Background()

		Convey("text", func() {
			var out bytes.Buffer
			So(run(ctx, []string{users}, &out), ShouldBeNil)
			So(out.String(), ShouldStartWith, "Schema: user\n{\n")
			So(out.String(), ShouldContainSubstring, `   integer("id").identifier(),`)
		})

		Convey("interface", func() {
			var out bytes.Buffer
			So(run(ctx, []string{"-format", "interface", users}, &out), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "interface User {")
		})

		Convey("json", func() {
			var out bytes.Buffer
			So(run(ctx, []string{"-format", "json", users, posts}, &out), ShouldBeNil)
			var schemas []map[string]any
			So(json.Unmarshal(out.Bytes(), &schemas), ShouldBeNil)
			So(len(schemas), ShouldEqual, 2)
			So(schemas[0]["name"], ShouldEqual, "user")
			So(schemas[1]["name"], ShouldEqual, "post")
		})

		Convey("ddl 中被引用的表排在前面", func() {
			var out bytes.Buffer
			So(run(ctx, []string{"-format", "ddl", posts, users}, &out), ShouldBeNil)
			ddlText := out.String()
			So(strings.Index(ddlText, `CREATE TABLE IF NOT EXISTS "users"`), ShouldBeLessThan, strings.Index(ddlText, `CREATE TABLE IF NOT EXISTS "posts"`))
			So(ddlText, ShouldContainSubstring, `FOREIGN KEY ("author_id") REFERENCES "users" ("id")`)
			So(ddlText, ShouldContainSubstring, `"role" INTEGER NOT NULL DEFAULT 1`)
		})

		Convey("go 输出到目录", func() {
			output := filepath.Join(dir, "model")
			So(run(ctx, []string{"-format", "go", "-package", "model", "-o", output, users, posts}, &bytes.Buffer{}), ShouldBeNil)
			src, err := os.ReadFile(filepath.Join(output, "users.go"))
			So(err, ShouldBeNil)
			So(string(src), ShouldStartWith, "package model\n")
			So(string(src), ShouldContainSubstring, "type User struct {")
			_, err = os.Stat(filepath.Join(output, "posts.go"))
			So(err, ShouldBeNil)
		})

		Convey("未解析的引用", func() {
			var out bytes.Buffer
			So(run(ctx, []string{"-format", "ddl", posts}, &out), ShouldNotBeNil)
		})

		Convey("重复的表名", func() {
			copied := writeFile(t, dir, "users_copy.yaml", usersDocument)
			So(run(ctx, []string{users, copied}, &bytes.Buffer{}), ShouldNotBeNil)
		})

		Convey("migrate", func() {
			database := filepath.Join(dir, "schemac.db")
			config := writeFile(t, dir, "schemac.yaml", `
format: ddl
migrator:
  type: SQLMigrator
  options:
    driver: sqlite3
    database: `+database+`
`)
			So(run(ctx, []string{"-config", config, "-migrate", posts, users}, &bytes.Buffer{}), ShouldBeNil)

			db, err := sql.Open("sqlite3", database)
			So(err, ShouldBeNil)
			defer db.Close()
			var count int
			So(db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'posts')`).Scan(&count), ShouldBeNil)
			So(count, ShouldEqual, 2)
		})
	})
}

func TestBuildSkipsUnchanged(t *testing.T) {
	Convey("指纹未变化时跳过输出", t, func() {
		dir := t.TempDir()
		users := writeFile(t, dir, "users.yaml", usersDocument)

		options, err := parseOptions([]string{users})
		So(err, ShouldBeNil)
		compiler, err := table.NewCompilerWithOptions(&options.Table)
		So(err, ShouldBeNil)

		var out bytes.Buffer
		a := &app{options: options, compiler: compiler, logger: log.Discard(), stdout: &out}
		So(a.build(context.Background()), ShouldBeNil)
		first := out.Len()
		So(first, ShouldBeGreaterThan, 0)

		So(a.build(context.Background()), ShouldBeNil)
		So(out.Len(), ShouldEqual, first)

		writeFile(t, dir, "users.yaml", usersDocument+`
  - key: nickname
    kind: text
    optional: true
`)
		So(a.build(context.Background()), ShouldBeNil)
		So(out.Len(), ShouldBeGreaterThan, first)
	})
}

func TestWatcher(t *testing.T) {
	Convey("Watcher 合并变化后通知", t, func() {
		dir := t.TempDir()
		users := writeFile(t, dir, "users.yaml", usersDocument)
		writeFile(t, dir, "other.yaml", "")

		w, err := NewWatcherWithOptions(&WatcherOptions{Files: []string{users}, Debounce: 50 * time.Millisecond})
		So(err, ShouldBeNil)

		var mu sync.Mutex
		var calls [][]string
		notified := make(chan struct{}, 8)
		So(w.OnChange(func(files []string) error {
			mu.Lock()
			calls = append(calls, files)
			mu.Unlock()
			notified <- struct{}{}
			return nil
		}), ShouldBeNil)

		writeFile(t, dir, "other.yaml", "ignored")
		writeFile(t, dir, "users.yaml", usersDocument)
		writeFile(t, dir, "users.yaml", usersDocument+"\n")

		select {
		case <-notified:
		case <-time.After(5 * time.Second):
		}
		So(w.Close(), ShouldBeNil)

		mu.Lock()
		defer mu.Unlock()
		So(len(calls), ShouldBeGreaterThanOrEqualTo, 1)
		abs, _ := filepath.Abs(users)
		So(calls[0], ShouldResemble, []string{abs})
	})

	Convey("未设置 Debounce 时使用默认值", t, func() {
		users := writeFile(t, t.TempDir(), "users.yaml", usersDocument)
		w, err := NewWatcherWithOptions(&WatcherOptions{Files: []string{users}})
		So(err, ShouldBeNil)
		So(w.debounce, ShouldEqual, 200*time.Millisecond)
		So(w.Close(), ShouldBeNil)
	})

	Convey("没有文件", t, func() {
		_, err := NewWatcherWithOptions(&WatcherOptions{})
		So(err, ShouldNotBeNil)
	})
}

func TestBuildDetectsKeyAndReferenceChanges(t *testing.T) {
	Convey("文本形式不变但输出会变的修改", t, func() {
		dir := t.TempDir()
		users := writeFile(t, dir, "users.yaml", usersDocument)
		posts := writeFile(t, dir, "posts.yaml", postsDocument)

		newApp := func(format string) (*app, *bytes.Buffer) {
			options, err := parseOptions([]string{"-format", format, users, posts})
			So(err, ShouldBeNil)
			compiler, err := table.NewCompilerWithOptions(&options.Table)
			So(err, ShouldBeNil)
			var out bytes.Buffer
			return &app{options: options, compiler: compiler, logger: log.Discard(), stdout: &out}, &out
		}

		Convey("只修改 key", func() {
			a, out := newApp("interface")
			So(a.build(context.Background()), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "email: string;")

			writeFile(t, dir, "users.yaml", strings.Replace(usersDocument, "key: email", "key: mail\n    name: email", 1))
			out.Reset()
			So(a.build(context.Background()), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "mail: string;")
			So(out.String(), ShouldNotContainSubstring, "email: string;")
		})

		Convey("只修改引用目标", func() {
			a, out := newApp("ddl")
			So(a.build(context.Background()), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, `REFERENCES "users" ("id")`)

			writeFile(t, dir, "posts.yaml", strings.Replace(postsDocument, "references: users.id", "references: users.email", 1))
			out.Reset()
			So(a.build(context.Background()), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, `REFERENCES "users" ("email")`)
		})

		Convey("只修改表名", func() {
			a, out := newApp("ddl")
			So(a.build(context.Background()), ShouldBeNil)

			writeFile(t, dir, "users.yaml", strings.Replace(usersDocument, "table: users", "table: accounts", 1))
			writeFile(t, dir, "posts.yaml", strings.Replace(postsDocument, "users.id", "accounts.id", 1))
			out.Reset()
			So(a.build(context.Background()), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, `CREATE TABLE IF NOT EXISTS "accounts"`)
		})
	})
}
