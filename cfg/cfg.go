package cfg

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Format 配置文件格式
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatINI  Format = "ini"
)

// FormatOf 根据文件后缀推断配置格式
func FormatOf(filename string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "ini":
		return FormatINI, nil
	}
	return "", errors.Errorf("unsupported config file %q", filename)
}

// Load 读取配置文件并加载到 object
// 依次执行：解码 -> ConvertTo -> SetDefaults -> Validate
func Load(filename string, object any) error {
	format, err := FormatOf(filename)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "read config file %s failed", filename)
	}
	return errors.WithMessagef(Unmarshal(data, format, object), "load config file %s failed", filename)
}

// Unmarshal 将 data 按 format 解码并加载到 object
func Unmarshal(data []byte, format Format, object any) error {
	raw, err := Decode(data, format)
	if err != nil {
		return err
	}
	if err := ConvertTo(raw, object); err != nil {
		return errors.WithMessage(err, "convert config failed")
	}
	if err := SetDefaults(object); err != nil {
		return errors.WithMessage(err, "set defaults failed")
	}
	return Validate(object)
}

// Decode 将 data 解码为通用结构（map[string]any / []any / 标量）
func Decode(data []byte, format Format) (any, error) {
	switch format {
	case FormatJSON:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, errors.Wrap(err, "decode json failed")
		}
		return v, nil
	case FormatYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, errors.Wrap(err, "decode yaml failed")
		}
		return v, nil
	case FormatTOML:
		v := map[string]any{}
		if err := toml.Unmarshal(data, &v); err != nil {
			return nil, errors.Wrap(err, "decode toml failed")
		}
		return v, nil
	case FormatINI:
		return decodeINI(data)
	}
	return nil, errors.Errorf("unsupported format %q", format)
}

// decodeINI 默认 section 的键放在顶层，其他 section 作为嵌套对象，
// 带点号的 section 名（a.b）展开为多层嵌套
func decodeINI(data []byte) (any, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:         true,
		SpaceBeforeInlineComment: true,
	}, data)
	if err != nil {
		return nil, errors.Wrap(err, "decode ini failed")
	}

	result := map[string]any{}
	for _, section := range file.Sections() {
		node := result
		if section.Name() != ini.DefaultSection {
			for _, part := range strings.Split(section.Name(), ".") {
				child, ok := node[part].(map[string]any)
				if !ok {
					child = map[string]any{}
					node[part] = child
				}
				node = child
			}
		}
		for _, key := range section.Keys() {
			if key.Name() == "" {
				continue
			}
			node[key.Name()] = key.String()
		}
	}
	return result, nil
}

var validate = validator.New()

// Validate 使用 validate tag 校验结构体，非结构体或 nil 指针直接通过
func Validate(object any) error {
	if object == nil {
		return nil
	}
	rv := reflect.ValueOf(object)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct || rv.Type() == timeType {
		return nil
	}
	if err := validate.Struct(rv.Interface()); err != nil {
		return errors.Wrap(err, "validate failed")
	}
	return nil
}
