package ref

import (
	"reflect"
	"sync"

	"github.com/hatlonely/schemax/cfg"
	"github.com/pkg/errors"
)

// TypeOptions 描述一个可通过配置构造的组件
// Namespace + Type 定位已注册的构造函数，Options 为构造参数
type TypeOptions struct {
	Namespace string `cfg:"namespace"`
	Type      string `cfg:"type" validate:"required"`
	Options   any    `cfg:"options"`
}

// Convertable 可以自行转换为构造参数的配置数据
type Convertable interface {
	ConvertTo(object any) error
}

type constructor struct {
	fn        reflect.Value
	param     reflect.Type
	withError bool
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func newConstructor(fn any) (*constructor, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, errors.New("constructor must be a function")
	}
	ft := fv.Type()
	if ft.NumIn() > 1 {
		return nil, errors.Errorf("constructor must have 0 or 1 input parameters, got %d", ft.NumIn())
	}
	if ft.NumOut() != 1 && ft.NumOut() != 2 {
		return nil, errors.Errorf("constructor must have 1 or 2 return values, got %d", ft.NumOut())
	}
	if ft.NumOut() == 2 && !ft.Out(1).Implements(errorType) {
		return nil, errors.New("second return value must be error type")
	}

	c := &constructor{fn: fv, withError: ft.NumOut() == 2}
	if ft.NumIn() == 1 {
		c.param = ft.In(0)
	}
	return c, nil
}

func (c *constructor) call(options any) (any, error) {
	var args []reflect.Value
	if c.param != nil {
		arg, err := c.convert(options)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	out := c.fn.Call(args)
	if c.withError && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// convert 将 options 转换为构造函数的参数类型
// 已是目标类型的直接使用；nil、map 或 Convertable 经过转换并填充默认值、校验
func (c *constructor) convert(options any) (reflect.Value, error) {
	if options != nil {
		if ov := reflect.ValueOf(options); ov.Type().AssignableTo(c.param) {
			return ov, nil
		}
	}

	elem := c.param
	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	target := reflect.New(elem)

	switch o := options.(type) {
	case nil:
	case Convertable:
		if err := o.ConvertTo(target.Interface()); err != nil {
			return reflect.Value{}, errors.WithMessagef(err, "convert options to %v failed", c.param)
		}
	default:
		if err := cfg.ConvertTo(o, target.Interface()); err != nil {
			return reflect.Value{}, errors.WithMessagef(err, "convert options to %v failed", c.param)
		}
	}
	if err := cfg.SetDefaults(target.Interface()); err != nil {
		return reflect.Value{}, errors.WithMessagef(err, "set defaults for %v failed", c.param)
	}
	if err := cfg.Validate(target.Interface()); err != nil {
		return reflect.Value{}, errors.WithMessagef(err, "invalid options for %v", c.param)
	}

	if c.param.Kind() == reflect.Ptr {
		return target, nil
	}
	return target.Elem(), nil
}

var constructors sync.Map

func key(namespace, typ string) string {
	return namespace + ":" + typ
}

// Register 注册构造函数
// 构造函数形如 func() T、func(O) T、func() (T, error) 或 func(O) (T, error)
// 重复注册同一个函数是幂等的，注册不同函数返回错误
func Register(namespace string, typ string, fn any) error {
	c, err := newConstructor(fn)
	if err != nil {
		return errors.WithMessagef(err, "register %s failed", key(namespace, typ))
	}
	if v, loaded := constructors.LoadOrStore(key(namespace, typ), c); loaded {
		if v.(*constructor).fn.Pointer() != c.fn.Pointer() {
			return errors.Errorf("constructor for %s already registered with different function", key(namespace, typ))
		}
	}
	return nil
}

func MustRegister(namespace string, typ string, fn any) {
	if err := Register(namespace, typ, fn); err != nil {
		panic(err)
	}
}

// RegisterT 以 T 的包路径和类型名作为 namespace 和 type 注册
func RegisterT[T any](fn any) error {
	namespace, typ, err := typeKey[T]()
	if err != nil {
		return err
	}
	return Register(namespace, typ, fn)
}

func MustRegisterT[T any](fn any) {
	if err := RegisterT[T](fn); err != nil {
		panic(err)
	}
}

// New 使用已注册的构造函数创建对象
func New(namespace string, typ string, options any) (any, error) {
	v, ok := constructors.Load(key(namespace, typ))
	if !ok {
		return nil, errors.Errorf("constructor not found for %s", key(namespace, typ))
	}
	return v.(*constructor).call(options)
}

// NewT 创建对象并断言为 T，namespace 和 type 由 T 推断
func NewT[T any](options any) (T, error) {
	var zero T
	namespace, typ, err := typeKey[T]()
	if err != nil {
		return zero, err
	}
	return As[T](New(namespace, typ, options))
}

// NewWithTypeOptions 根据 TypeOptions 创建对象
func NewWithTypeOptions[T any](options *TypeOptions) (T, error) {
	var zero T
	if options == nil {
		return zero, errors.New("type options cannot be nil")
	}
	return As[T](New(options.Namespace, options.Type, options.Options))
}

// As 将 New 的结果断言为 T
func As[T any](obj any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	t, ok := obj.(T)
	if !ok {
		return zero, errors.Errorf("created object %T is not of type %T", obj, zero)
	}
	return t, nil
}

func typeKey[T any]() (string, string, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return "", "", errors.Errorf("cannot determine package path or type name for type %v", t)
	}
	return t.PkgPath(), t.Name(), nil
}
