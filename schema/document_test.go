package schema

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

const artefactDocument = `
name: artefact
table: artefacts
fields:
  - key: id
    kind: integer
    identifier: true
  - key: pathname
    kind: text
    unique: true
  - key: mode
    kind: enum
    codes:
      - {label: blob, code: 100644}
      - {label: executable, code: 100755}
      - {label: directory, code: 40000}
  - key: tags
    kind: text
    array: true
    defaultMarker: emptyArray
  - key: size
    kind: integer
    default: 0
  - key: ratio
    kind: real
    default: 1
  - key: modifiedAt
    name: modified_at
    kind: timestamp
    default: "2024-01-02T03:04:05Z"
  - key: createdAt
    name: created_at
    kind: timestamp
    defaultMarker: now
  - key: commit
    kind: integer
    optional: true
    references: commits.id
`

func writeDocument(t *testing.T, name, content string) string {
	filename := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestLoadDocument(t *testing.T) {
	Convey("LoadDocument", t, func() {
		doc, err := LoadDocument(writeDocument(t, "artefact.yaml", artefactDocument))
		So(err, ShouldBeNil)
		So(doc.Name, ShouldEqual, "artefact")
		So(doc.TableName(), ShouldEqual, "artefacts")
		So(len(doc.Fields), ShouldEqual, 9)

		resolved := 0
		resolver := func(table, key string) (Target, bool) {
			resolved++
			if table == "commits" && key == "id" {
				return Target{Table: "commits", Column: "id"}, true
			}
			return Target{}, false
		}

		s, err := New(doc.Name, doc.Builder(resolver))
		So(err, ShouldBeNil)
		So(resolved, ShouldEqual, 0)

		So(s.Fields().Keys(), ShouldResemble, []string{
			"id", "pathname", "mode", "tags", "size", "ratio", "modifiedAt", "createdAt", "commit",
		})

		mode, _ := s.Field("mode")
		So(mode.Config().Options.Codes(), ShouldResemble, []EnumCode{
			{"blob", 100644}, {"executable", 100755}, {"directory", 40000},
		})

		tags, _ := s.Field("tags")
		So(tags.IsArray(), ShouldBeTrue)
		So(tags.DefaultValue().IsEmptyArray(), ShouldBeTrue)

		size, _ := s.Field("size")
		So(size.DefaultValue().Value(), ShouldEqual, int64(0))

		ratio, _ := s.Field("ratio")
		So(ratio.DefaultValue().Value(), ShouldEqual, float64(1))

		modifiedAt, _ := s.Field("modifiedAt")
		So(modifiedAt.Name(), ShouldEqual, "modified_at")
		So(modifiedAt.DefaultValue().Value(), ShouldEqual, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

		createdAt, _ := s.Field("createdAt")
		So(createdAt.DefaultValue().IsNow(), ShouldBeTrue)

		commit, _ := s.Field("commit")
		So(commit.IsOptional(), ShouldBeTrue)
		So(commit.Reference()(), ShouldResemble, Target{Table: "commits", Column: "id"})
		So(resolved, ShouldEqual, 1)
	})

	Convey("文档校验", t, func() {
		Convey("未知类型", func() {
			_, err := LoadDocument(writeDocument(t, "a.json", `{"name": "a", "fields": [{"key": "x", "kind": "decimal"}]}`))
			So(err, ShouldNotBeNil)
		})

		Convey("default 与 defaultMarker 互斥", func() {
			_, err := LoadDocument(writeDocument(t, "a.json", `{"name": "a", "fields": [{"key": "x", "kind": "timestamp", "default": 1, "defaultMarker": "now"}]}`))
			So(err, ShouldNotBeNil)
		})

		Convey("labels 与 codes 互斥", func() {
			_, err := LoadDocument(writeDocument(t, "a.json", `{"name": "a", "fields": [{"key": "x", "kind": "enum", "labels": ["a"], "codes": [{"label": "b", "code": 1}]}]}`))
			So(err, ShouldNotBeNil)
		})

		Convey("负数编码", func() {
			_, err := LoadDocument(writeDocument(t, "a.json", `{"name": "a", "fields": [{"key": "x", "kind": "enum", "codes": [{"label": "b", "code": -1}]}]}`))
			So(err, ShouldNotBeNil)
		})

		Convey("引用格式", func() {
			_, err := LoadDocument(writeDocument(t, "a.json", `{"name": "a", "fields": [{"key": "x", "kind": "integer", "references": "commits"}]}`))
			So(err, ShouldNotBeNil)
		})

		Convey("enum 作为主键在编译时报错", func() {
			doc, err := LoadDocument(writeDocument(t, "a.toml", `
name = "a"

[[fields]]
key = "role"
kind = "enum"
labels = ["admin", "user"]
identifier = true
`))
			So(err, ShouldBeNil)
			_, err = New(doc.Name, doc.Builder(nil))
			So(errors.Is(err, ErrConstraintViolation), ShouldBeTrue)
		})
	})
}
