package cfg

import (
	"reflect"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ConvertTo 将通用配置数据（map[string]any / []any / 标量）转换到 object 指向的结构体
//
// 字段名优先使用 cfg tag，其次 json tag，最后忽略大小写匹配字段名；
// cfg:"-" 的字段不参与转换。字符串会按目标类型解析，以兼容 ini 这类只有字符串值的格式
func ConvertTo(data any, object any) error {
	if object == nil {
		return errors.New("object cannot be nil")
	}
	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("object must be a non-nil pointer")
	}
	return convertValue(data, rv.Elem())
}

func convertValue(src any, dst reflect.Value) error {
	sv := reflect.ValueOf(src)
	if !sv.IsValid() {
		return nil
	}
	for sv.Kind() == reflect.Ptr {
		if sv.IsNil() {
			return nil
		}
		sv = sv.Elem()
	}

	if dst.Kind() == reflect.Ptr {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return convertValue(sv.Interface(), dst.Elem())
	}

	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}

	if dst.Type() == durationType || dst.Type() == timeType {
		return convertTime(sv, dst)
	}

	switch dst.Kind() {
	case reflect.Interface:
		if dst.Type().NumMethod() == 0 {
			dst.Set(sv)
			return nil
		}
	case reflect.Struct:
		return convertStruct(sv, dst)
	case reflect.Map:
		return convertMap(sv, dst)
	case reflect.Slice:
		return convertSlice(sv, dst)
	}

	if sv.Kind() == reflect.String && dst.Kind() != reflect.String {
		return parseScalar(dst, sv.String())
	}
	if isNumber(sv.Kind()) && isNumber(dst.Kind()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	if sv.Kind() == dst.Kind() && sv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}

	return errors.Errorf("cannot convert %v to %v", sv.Type(), dst.Type())
}

func convertTime(sv, dst reflect.Value) error {
	switch {
	case sv.Kind() == reflect.String:
		return parseScalar(dst, sv.String())
	case sv.Type() == timeType && dst.Type() == timeType:
		dst.Set(sv)
		return nil
	case isNumber(sv.Kind()) && dst.Type() == durationType:
		dst.SetInt(sv.Convert(durationType).Int())
		return nil
	case isNumber(sv.Kind()) && dst.Type() == timeType:
		dst.Set(reflect.ValueOf(time.Unix(sv.Convert(reflect.TypeOf(int64(0))).Int(), 0)))
		return nil
	}
	return errors.Errorf("cannot convert %v to %v", sv.Type(), dst.Type())
}

func convertStruct(sv, dst reflect.Value) error {
	if sv.Kind() != reflect.Map {
		return errors.Errorf("cannot convert %v to struct %v", sv.Type(), dst.Type())
	}

	values := map[string]reflect.Value{}
	folded := map[string]reflect.Value{}
	for _, key := range sv.MapKeys() {
		k, ok := key.Interface().(string)
		if !ok {
			continue
		}
		values[k] = sv.MapIndex(key)
		folded[strings.ToLower(k)] = sv.MapIndex(key)
	}

	dt := dst.Type()
	for i := 0; i < dt.NumField(); i++ {
		field := dt.Field(i)
		fv := dst.Field(i)
		if !fv.CanSet() {
			continue
		}
		name := fieldName(field)
		if name == "-" {
			continue
		}

		v, ok := values[name]
		if !ok {
			v, ok = folded[strings.ToLower(name)]
		}
		if !ok {
			continue
		}
		if err := convertValue(v.Interface(), fv); err != nil {
			return errors.WithMessagef(err, "field %s", name)
		}
	}
	return nil
}

func fieldName(field reflect.StructField) string {
	for _, tag := range []string{"cfg", "json"} {
		if v := strings.Split(field.Tag.Get(tag), ",")[0]; v != "" {
			return v
		}
	}
	return field.Name
}

func convertMap(sv, dst reflect.Value) error {
	if sv.Kind() != reflect.Map {
		return errors.Errorf("cannot convert %v to map %v", sv.Type(), dst.Type())
	}
	m := reflect.MakeMapWithSize(dst.Type(), sv.Len())
	for _, key := range sv.MapKeys() {
		k := reflect.New(dst.Type().Key()).Elem()
		if err := convertValue(key.Interface(), k); err != nil {
			return err
		}
		v := reflect.New(dst.Type().Elem()).Elem()
		if err := convertValue(sv.MapIndex(key).Interface(), v); err != nil {
			return errors.WithMessagef(err, "key %v", key.Interface())
		}
		m.SetMapIndex(k, v)
	}
	dst.Set(m)
	return nil
}

func convertSlice(sv, dst reflect.Value) error {
	if sv.Kind() == reflect.String && dst.Type().Elem().Kind() != reflect.Uint8 {
		return setDefaultValue(dst, sv.String())
	}
	if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
		return errors.Errorf("cannot convert %v to slice %v", sv.Type(), dst.Type())
	}
	slice := reflect.MakeSlice(dst.Type(), sv.Len(), sv.Len())
	for i := 0; i < sv.Len(); i++ {
		if err := convertValue(sv.Index(i).Interface(), slice.Index(i)); err != nil {
			return errors.WithMessagef(err, "index %d", i)
		}
	}
	dst.Set(slice)
	return nil
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
