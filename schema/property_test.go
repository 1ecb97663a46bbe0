package schema

import (
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
)

func TestPropertyImmutable(t *testing.T) {
	Convey("修饰方法不修改接收者", t, func() {
		base := Text("email")
		chained := base.Optional().Unique().Array().Default("a@b.c").Init("mail")

		So(base.IsOptional(), ShouldBeFalse)
		So(base.IsUnique(), ShouldBeFalse)
		So(base.IsArray(), ShouldBeFalse)
		So(base.HasDefault(), ShouldBeFalse)
		So(base.Name(), ShouldEqual, "email")

		So(chained.Kind(), ShouldEqual, KindText)
		So(chained.Name(), ShouldEqual, "mail")
		So(chained.IsOptional(), ShouldBeTrue)
		So(chained.IsUnique(), ShouldBeTrue)
		So(chained.IsArray(), ShouldBeTrue)
		So(chained.DefaultValue().Value(), ShouldEqual, "a@b.c")

		Convey("每一步都保持 kind 不变", func() {
			for _, p := range []Property{
				Integer("a").Identifier(),
				Integer("a").Optional(),
				Integer("a").Unique(),
				Integer("a").Array().Array(),
				Integer("a").Default(1),
				Integer("a").WithConfig(Config{}),
				Integer("a").References(func() Target { return Target{} }),
			} {
				So(p.Kind(), ShouldEqual, KindInteger)
			}
		})

		Convey("Array 是幂等的", func() {
			once := Integer("a").Array()
			twice := once.Array()
			So(twice.IsArray(), ShouldBeTrue)
			So(twice.String(), ShouldEqual, once.String())
		})
	})
}

func TestPropertyDefault(t *testing.T) {
	Convey("HasDefault 区分缺省和显式零值", t, func() {
		So(Integer("n").HasDefault(), ShouldBeFalse)
		So(Integer("n").Default(0).HasDefault(), ShouldBeTrue)
		So(Text("s").Default("").HasDefault(), ShouldBeTrue)
		So(Integer("b").Default(false).HasDefault(), ShouldBeTrue)
		So(Text("s").Default(nil).HasDefault(), ShouldBeTrue)

		d := Timestamp("t").Default(Now).DefaultValue()
		So(d.IsNow(), ShouldBeTrue)
		So(d.IsLiteral(), ShouldBeFalse)
		So(d.Value(), ShouldBeNil)

		d = Text("t").Array().Default(EmptyArray).DefaultValue()
		So(d.IsEmptyArray(), ShouldBeTrue)

		d = Integer("n").Default(Literal(7)).DefaultValue()
		So(d.IsLiteral(), ShouldBeTrue)
		So(d.Value(), ShouldEqual, 7)
	})
}

func TestEnumConstraint(t *testing.T) {
	Convey("enum 不能作为主键或唯一键", t, func() {
		role := Enum("role", Labels("admin", "user"))

		Convey("Identifier", func() {
			So(func() { role.Identifier() }, ShouldPanic)
		})

		Convey("Unique", func() {
			So(func() { role.Unique() }, ShouldPanic)
		})

		Convey("与修饰顺序无关", func() {
			for _, chain := range []func(){
				func() { role.Optional().Identifier() },
				func() { role.Array().Default("admin").Unique() },
				func() { role.Init("other").Optional().Array().Identifier() },
			} {
				So(chain, ShouldPanic)
			}
		})

		Convey("panic 的值为 *ConstraintViolation", func() {
			defer func() {
				r := recover()
				cv, ok := r.(*ConstraintViolation)
				So(ok, ShouldBeTrue)
				So(cv.Field, ShouldEqual, "role")
				So(cv.Kind, ShouldEqual, KindEnum)
				So(cv.Modifier, ShouldEqual, "unique")
				So(errors.Is(cv, ErrConstraintViolation), ShouldBeTrue)
				So(cv.Error(), ShouldContainSubstring, `"role"`)
			}()
			role.Unique()
		})

		Convey("其他修饰都是合法的", func() {
			So(func() { role.Optional().Array().Default("user") }, ShouldNotPanic)
		})
	})
}

func TestKind(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, k.Valid())
		parsed, err := ParseKind(string(k))
		assert.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("decimal")
	assert.True(t, errors.Is(err, ErrUnsupportedType))
	assert.False(t, Kind("decimal").Valid())
}

func TestPrimitive(t *testing.T) {
	ps := Primitives()
	assert.Len(t, ps, 7)
	for i, k := range Kinds() {
		assert.Equal(t, k, ps[i].Kind())
		p, err := Primitive(k)
		assert.NoError(t, err)
		assert.Equal(t, k, p.Kind())
		assert.Empty(t, p.Name())
	}

	_, err := Primitive("decimal")
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestFieldBuilder(t *testing.T) {
	f := FieldBuilder{}
	cases := []struct {
		p    Property
		kind Kind
	}{
		{f.Integer("a"), KindInteger},
		{f.Real("a"), KindReal},
		{f.Text("a"), KindText},
		{f.Blob("a"), KindBlob},
		{f.Timestamp("a"), KindTimestamp},
		{f.Node("a"), KindNode},
		{f.Enum("a", Labels("x")), KindEnum},
	}
	for _, c := range cases {
		assert.Equal(t, c.kind, c.p.Kind())
		assert.Equal(t, "a", c.p.Name())
	}
	assert.Equal(t, []string{"x"}, f.Enum("a", Labels("x")).Config().Options.Labels())
	assert.Nil(t, f.Enum("a", nil).Config().Options)
}

func TestEnumOptions(t *testing.T) {
	Convey("Labels 编码为下标", t, func() {
		o := Labels("a", "b", "c")
		So(o.IsMapping(), ShouldBeFalse)
		So(o.Len(), ShouldEqual, 3)
		So(o.Codes(), ShouldResemble, []EnumCode{{"a", 0}, {"b", 1}, {"c", 2}})
		So(o.Validate(), ShouldBeNil)
	})

	Convey("Codes 保持声明顺序", t, func() {
		o := Codes(Code("blob", 100644), Code("directory", 40000))
		So(o.IsMapping(), ShouldBeTrue)
		So(o.Labels(), ShouldResemble, []string{"blob", "directory"})
		So(o.Validate(), ShouldBeNil)

		data, err := o.MarshalJSON()
		So(err, ShouldBeNil)
		So(string(data), ShouldEqual, `{"blob":100644,"directory":40000}`)
	})

	Convey("非法选项", t, func() {
		So(errors.Is(Labels("a", "a").Validate(), ErrInvalidEnum), ShouldBeTrue)
		So(errors.Is(Codes(Code("a", 1), Code("b", 1)).Validate(), ErrInvalidEnum), ShouldBeTrue)
		So(errors.Is(Codes(Code("a", -1)).Validate(), ErrInvalidEnum), ShouldBeTrue)
	})

	Convey("nil 选项", t, func() {
		var o *EnumOptions
		So(o.Labels(), ShouldBeNil)
		So(o.Codes(), ShouldBeNil)
		So(o.Len(), ShouldEqual, 0)
		So(o.IsMapping(), ShouldBeFalse)
		So(o.Validate(), ShouldBeNil)
	})
}
