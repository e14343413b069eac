package audit

import (
	"bytes"
	"encoding"
	"encoding/json"
	"reflect"
	"strings"
)

// unserializableValue подставляется вместо значения, которое не удалось привести к JSON.
const unserializableValue = "[unserializable]"

// sensitiveKeys хранятся в нормализованном виде, см. normalizeKey.
var sensitiveKeys = map[string]struct{}{
	"password":             {},
	"encryptedpassword":    {},
	"passwordconfirmation": {},
	"passworddigest":       {},
	"token":                {},
	"secret":               {},
	"apikey":               {},
	"authenticationtoken":  {},
}

// normalizeKey приводит "API-Key", "api_key" и "apiKey" к одному виду.
func normalizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range strings.ToLower(key) {
		if r == '_' || r == '-' || r == ' ' || r == '.' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func IsSensitive(key string) bool {
	_, ok := sensitiveKeys[normalizeKey(key)]
	return ok
}

// Sanitize возвращает копию attrs без чувствительных ключей, в том числе во вложенных объектах.
// Исходная мапа не изменяется. Для nil возвращается nil.
func Sanitize(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	clean := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if IsSensitive(k) {
			continue
		}
		clean[k] = sanitizeValue(v)
	}
	return clean
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return Sanitize(val)
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = sanitizeValue(item)
		}
		return items
	case json.Marshaler, encoding.TextMarshaler:
		// decimal, time, uuid и подобные сериализуются в скаляр.
		return v
	}

	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return sanitizeValue(toGeneric(v))
	default:
		return v
	}
}

// toGeneric приводит типизированный контейнер ([]map[string]any, map[string]string, структура)
// к map[string]any / []any через JSON, чтобы ключи стали видны Sanitize.
func toGeneric(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return unserializableValue
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err = dec.Decode(&out); err != nil {
		return unserializableValue
	}
	return out
}
