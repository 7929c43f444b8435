package column

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/eachrow"
)

var simpleTypes = map[string]func() eachrow.ColumnType{
	"Int8":     func() eachrow.ColumnType { return Int8() },
	"Int16":    func() eachrow.ColumnType { return Int16() },
	"Int32":    func() eachrow.ColumnType { return Int32() },
	"Int64":    func() eachrow.ColumnType { return Int64() },
	"UInt8":    func() eachrow.ColumnType { return UInt8() },
	"UInt16":   func() eachrow.ColumnType { return UInt16() },
	"UInt32":   func() eachrow.ColumnType { return UInt32() },
	"UInt64":   func() eachrow.ColumnType { return UInt64() },
	"Float32":  func() eachrow.ColumnType { return Float32() },
	"Float64":  func() eachrow.ColumnType { return Float64() },
	"Bool":     func() eachrow.ColumnType { return Bool() },
	"String":   func() eachrow.ColumnType { return String() },
	"UUID":     func() eachrow.ColumnType { return UUID() },
	"Date":     func() eachrow.ColumnType { return Date() },
	"DateTime": func() eachrow.ColumnType { return DateTime() },
	"JSON":     func() eachrow.ColumnType { return JSON() },
}

// Parse builds a column type from its name, for example "Int64",
// "Nullable(String)", "Array(Array(Float64))" or "Decimal(10, 2)".
func Parse(name string) (eachrow.ColumnType, error) {
	name = strings.TrimSpace(name)
	if mk, ok := simpleTypes[name]; ok {
		return mk(), nil
	}
	open := strings.IndexByte(name, '(')
	if open <= 0 || !strings.HasSuffix(name, ")") {
		return nil, fmt.Errorf("unknown column type %q", name)
	}
	head, arg := strings.TrimSpace(name[:open]), name[open+1:len(name)-1]
	switch head {
	case "Nullable":
		inner, err := Parse(arg)
		if err != nil {
			return nil, err
		}
		return Nullable(inner)
	case "Array":
		elem, err := Parse(arg)
		if err != nil {
			return nil, err
		}
		return Array(elem), nil
	case "Decimal":
		parts := strings.Split(arg, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("Decimal needs precision and scale, got %q", name)
		}
		p, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("decimal precision in %q: %w", name, err)
		}
		s, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("decimal scale in %q: %w", name, err)
		}
		d, err := Decimal(int32(p), int32(s))
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, fmt.Errorf("unknown column type %q", name)
}
