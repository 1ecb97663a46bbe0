package cfg

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// SetDefaults 根据 def tag 为零值字段填充默认值
//
// 嵌套结构体递归处理；nil 指针字段保持 nil，不会被自动分配，
// 以便 *ref.TypeOptions 之类的可选配置保留“未配置”的语义
func SetDefaults(object any) error {
	if object == nil {
		return errors.New("object cannot be nil")
	}

	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr {
		return errors.New("object must be a pointer")
	}
	if rv.IsNil() {
		return errors.New("object cannot be nil")
	}

	return setDefaults(rv.Elem())
}

func setDefaults(rv reflect.Value) error {
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		return setDefaults(rv.Elem())
	}
	if rv.Kind() != reflect.Struct || rv.Type() == timeType {
		return nil
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		fv := rv.Field(i)
		if !fv.CanSet() || field.Tag.Get("cfg") == "-" {
			continue
		}

		if err := setDefaults(fv); err != nil {
			return errors.WithMessagef(err, "field %s", field.Name)
		}

		def, ok := field.Tag.Lookup("def")
		if !ok || !fv.IsZero() || isNestedStruct(fv.Type()) {
			continue
		}

		target := fv
		if fv.Kind() == reflect.Ptr {
			target = reflect.New(fv.Type().Elem()).Elem()
		}
		if err := setDefaultValue(target, def); err != nil {
			return errors.WithMessagef(err, "set default value for field %s failed", field.Name)
		}
		if fv.Kind() == reflect.Ptr {
			fv.Set(target.Addr())
		}
	}

	return nil
}

func isNestedStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t != timeType
}

func setDefaultValue(rv reflect.Value, def string) error {
	switch rv.Kind() {
	case reflect.Slice:
		if def == "" {
			rv.Set(reflect.MakeSlice(rv.Type(), 0, 0))
			return nil
		}
		parts := strings.Split(def, ",")
		slice := reflect.MakeSlice(rv.Type(), len(parts), len(parts))
		for i, part := range parts {
			if err := setDefaultValue(slice.Index(i), strings.TrimSpace(part)); err != nil {
				return errors.WithMessagef(err, "slice element %d", i)
			}
		}
		rv.Set(slice)
		return nil
	case reflect.Map:
		return errors.New("map default values are not supported")
	}

	return parseScalar(rv, def)
}

// parseScalar 将字符串解析为 rv 的类型并赋值，支持 time.Duration 和 time.Time
func parseScalar(rv reflect.Value, s string) error {
	switch rv.Type() {
	case durationType:
		d, err := parseDuration(s)
		if err != nil {
			return err
		}
		rv.SetInt(int64(d))
		return nil
	case timeType:
		t, err := parseTime(s)
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(t))
		return nil
	}

	switch rv.Kind() {
	case reflect.String:
		rv.SetString(s)
	case reflect.Bool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return errors.Wrapf(err, "invalid bool value %q", s)
		}
		rv.SetBool(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(s, 0, rv.Type().Bits())
		if err != nil {
			return errors.Wrapf(err, "invalid int value %q", s)
		}
		rv.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(s, 0, rv.Type().Bits())
		if err != nil {
			return errors.Wrapf(err, "invalid uint value %q", s)
		}
		rv.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(s, rv.Type().Bits())
		if err != nil {
			return errors.Wrapf(err, "invalid float value %q", s)
		}
		rv.SetFloat(v)
	case reflect.Interface:
		rv.Set(reflect.ValueOf(s))
	default:
		return errors.Errorf("unsupported type %v", rv.Type())
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}
	if n, numErr := strconv.ParseInt(s, 10, 64); numErr == nil {
		return time.Duration(n), nil
	}
	return 0, errors.Wrapf(err, "invalid duration value %q", s)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0), nil
	}
	return time.Time{}, errors.Errorf("invalid time value %q", s)
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)
