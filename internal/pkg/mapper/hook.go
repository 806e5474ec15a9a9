package mapper

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"gorm.io/gorm"
)

// stringHook 解码钩子, 将 Redis Hash 中的字符串转换为目标字段类型
func stringHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	// 只处理从 string 到其他类型的转换
	if f.Kind() != reflect.String {
		return data, nil
	}
	sourceString := data.(string)

	// 空字符串: 指针为 nil, 值类型为零值
	if sourceString == "" {
		if t.Kind() == reflect.Ptr {
			return nil, nil
		}
		return reflect.Zero(t).Interface(), nil
	}

	switch t {
	case reflect.TypeOf(time.Time{}):
		return time.Parse(time.RFC3339Nano, sourceString)
	case reflect.TypeOf(gorm.DeletedAt{}):
		parsedTime, err := time.Parse(time.RFC3339Nano, sourceString)
		if err != nil {
			return nil, err
		}
		return gorm.DeletedAt{Time: parsedTime, Valid: true}, nil
	}

	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.ParseUint(sourceString, 10, 64)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.ParseInt(sourceString, 10, 64)
	case reflect.Ptr:
		// 指针数值类型, 例如 *uint32
		switch t.Elem().Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			val, err := strconv.ParseUint(sourceString, 10, 64)
			if err != nil {
				return nil, err
			}
			ptr := reflect.New(t.Elem())
			ptr.Elem().SetUint(val)
			return ptr.Interface(), nil
		}
	}
	return data, nil
}

func decodeHash(dataMap map[string]string, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		DecodeHook:       stringHook,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create map decoder: %w", err)
	}
	return decoder.Decode(dataMap)
}
