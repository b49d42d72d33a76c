package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// SerializeKey builds a key from a namespace and arguments. The result
// depends only on the argument values: struct fields are written by name,
// map keys are sorted and nil is kept apart from empty.
func SerializeKey(namespace string, args ...any) string {
	if len(args) == 0 {
		return namespace
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, namespace)
	for _, arg := range args {
		parts = append(parts, serializeValue(arg))
	}
	return strings.Join(parts, KeySeparator)
}

func serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()

	if rt.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "nil"
		}
		return serializeValue(rv.Elem().Interface())
	}

	// Identifiers such as uuid.UUID serialize as their text form.
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}

	switch rt.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return "slice" + serializeElems(rv)
	case reflect.Array:
		return "array" + serializeElems(rv)
	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return serializeMap(rv)
	case reflect.Struct:
		return serializeStruct(rv, rt)
	case reflect.Interface:
		if rv.IsNil() {
			return "interface:nil"
		}
		return serializeValue(rv.Elem().Interface())
	}

	if rt.Kind() == reflect.String {
		// Quoted so a separator inside user text cannot forge a segment.
		return strconv.Quote(rv.String())
	}
	if isBasicType(rt.Kind()) {
		return fmt.Sprintf("%v", v)
	}
	return jsonFallback(v)
}

func serializeElems(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = serializeValue(rv.Index(i).Interface())
	}
	return fmt.Sprintf("[%d]:{%s}", len(parts), strings.Join(parts, ","))
}

// serializeMap writes entries in sorted key order.
func serializeMap(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, serializeValue(iter.Key().Interface())+"="+serializeValue(iter.Value().Interface()))
	}
	sort.Strings(pairs)
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

func serializeStruct(rv reflect.Value, rt reflect.Type) string {
	parts := make([]string, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		parts = append(parts, field.Name+":"+serializeValue(rv.Field(i).Interface()))
	}
	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

func isBasicType(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "fallback:" + reflect.TypeOf(v).String()
	}
	return "json:" + string(data)
}
