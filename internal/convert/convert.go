// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package convert coerces raw driver values into Go destinations. It is
// used by the property accessors of static shapes and by the population
// routine of synthesized record layouts.
package convert

import (
	"database/sql"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/canonical/rowgraph/rowset"
)

var (
	timeType         = reflect.TypeOf(time.Time{})
	decimalType      = reflect.TypeOf(decimal.Decimal{})
	uuidType         = reflect.TypeOf(uuid.UUID{})
	bytesType        = reflect.TypeOf([]byte(nil))
	scannerInterface = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// nullTypes are the standard nullable wrappers and the TypeID of the value
// they wrap.
var nullTypes = map[reflect.Type]rowset.TypeID{
	reflect.TypeOf(sql.NullBool{}):        rowset.TypeBool,
	reflect.TypeOf(sql.NullByte{}):        rowset.TypeInt64,
	reflect.TypeOf(sql.NullInt16{}):       rowset.TypeInt64,
	reflect.TypeOf(sql.NullInt32{}):       rowset.TypeInt64,
	reflect.TypeOf(sql.NullInt64{}):       rowset.TypeInt64,
	reflect.TypeOf(sql.NullFloat64{}):     rowset.TypeFloat64,
	reflect.TypeOf(sql.NullString{}):      rowset.TypeString,
	reflect.TypeOf(sql.NullTime{}):        rowset.TypeTime,
	reflect.TypeOf(decimal.NullDecimal{}): rowset.TypeDecimal,
	reflect.TypeOf(uuid.NullUUID{}):       rowset.TypeUUID,
}

// timeLayouts are tried in order when parsing a time without a format.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// TypeOf returns the TypeID that describes values of Go type t.
func TypeOf(t reflect.Type) rowset.TypeID {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if id, ok := nullTypes[t]; ok {
		return id
	}
	switch t {
	case timeType:
		return rowset.TypeTime
	case decimalType:
		return rowset.TypeDecimal
	case uuidType:
		return rowset.TypeUUID
	}
	switch t.Kind() {
	case reflect.Bool:
		return rowset.TypeBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rowset.TypeInt64
	case reflect.Float32, reflect.Float64:
		return rowset.TypeFloat64
	case reflect.String:
		return rowset.TypeString
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return rowset.TypeBytes
		}
	}
	return rowset.TypeUnknown
}

// GoType returns the Go type used to hold values of id, or nil for
// TypeUnknown.
func GoType(id rowset.TypeID) reflect.Type {
	switch id {
	case rowset.TypeBool:
		return reflect.TypeOf(false)
	case rowset.TypeInt64:
		return reflect.TypeOf(int64(0))
	case rowset.TypeFloat64:
		return reflect.TypeOf(float64(0))
	case rowset.TypeString:
		return reflect.TypeOf("")
	case rowset.TypeBytes:
		return bytesType
	case rowset.TypeTime:
		return timeType
	case rowset.TypeDecimal:
		return decimalType
	case rowset.TypeUUID:
		return uuidType
	}
	return nil
}

// IsScalar reports whether a value of type t can be filled from a single
// column.
func IsScalar(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case timeType, decimalType, uuidType, bytesType:
		return true
	}
	if reflect.PointerTo(t).Implements(scannerInterface) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String, reflect.Interface,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8
	}
	return false
}

// Nullable reports whether a value of type t has a representation for NULL.
func Nullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	}
	switch t {
	case timeType, decimalType, uuidType:
		return false
	}
	return reflect.PointerTo(t).Implements(scannerInterface)
}

// Formattable reports whether a format string can be applied when
// assigning to type t.
func Formattable(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.String || t == timeType
}

// SetNull stores the NULL representation of dst's type in dst.
func SetNull(dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	if Nullable(dst.Type()) && dst.CanAddr() {
		return dst.Addr().Interface().(sql.Scanner).Scan(nil)
	}
	return fmt.Errorf("%s cannot hold null", dst.Type())
}

// Value converts src to the Go representation of id. Values of an unknown
// type are returned unchanged.
func Value(src any, id rowset.TypeID) (any, error) {
	t := GoType(id)
	if t == nil || reflect.TypeOf(src) == t {
		return src, nil
	}
	dst := reflect.New(t).Elem()
	if err := Assign(dst, src, ""); err != nil {
		return nil, err
	}
	return dst.Interface(), nil
}

// Assign converts src and stores it in dst, which must be settable. src
// must not be null. When format is set it is used to render numbers and
// times into strings, and to parse strings into times.
func Assign(dst reflect.Value, src any, format string) error {
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := Assign(elem.Elem(), src, format); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	sv := reflect.ValueOf(src)
	if !sv.IsValid() {
		return fmt.Errorf("cannot convert null to %s", dst.Type())
	}
	if sv.Type() == dst.Type() && format == "" {
		if b, ok := src.([]byte); ok {
			src = append([]byte(nil), b...)
			sv = reflect.ValueOf(src)
		}
		dst.Set(sv)
		return nil
	}
	if format != "" {
		return assignFormatted(dst, src, format)
	}
	switch dst.Type() {
	case timeType:
		t, err := asTime(src, "")
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	case decimalType:
		d, err := asDecimal(src)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(d))
		return nil
	case uuidType:
		u, err := asUUID(src)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(u))
		return nil
	}
	if dst.CanAddr() && reflect.PointerTo(dst.Type()).Implements(scannerInterface) {
		return dst.Addr().Interface().(sql.Scanner).Scan(src)
	}

	switch dst.Kind() {
	case reflect.String:
		s, err := asString(src)
		if err != nil {
			return err
		}
		dst.SetString(s)
		return nil
	case reflect.Bool:
		b, err := asBool(src)
		if err != nil {
			return err
		}
		dst.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := asInt64(src)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := asUint64(sv, dst.Type())
		if err != nil {
			return err
		}
		if dst.OverflowUint(u) {
			return fmt.Errorf("value %d overflows %s", u, dst.Type())
		}
		dst.SetUint(u)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := asFloat64(src)
		if err != nil {
			return err
		}
		if dst.OverflowFloat(f) {
			return fmt.Errorf("value %g overflows %s", f, dst.Type())
		}
		dst.SetFloat(f)
		return nil
	case reflect.Interface:
		if sv.Type().Implements(dst.Type()) {
			dst.Set(sv)
			return nil
		}
	case reflect.Slice:
		return assignSlice(dst, sv)
	}

	if sv.Type().ConvertibleTo(dst.Type()) && sv.Kind() == dst.Kind() {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot convert %T to %s", src, dst.Type())
}

func assignFormatted(dst reflect.Value, src any, format string) error {
	switch {
	case dst.Kind() == reflect.String:
		var s string
		switch v := src.(type) {
		case time.Time:
			s = v.Format(format)
		case []byte:
			s = fmt.Sprintf(format, string(v))
		default:
			s = fmt.Sprintf(format, src)
		}
		dst.SetString(s)
		return nil
	case dst.Type() == timeType:
		t, err := asTime(src, format)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	}
	return fmt.Errorf("format %q cannot be applied to %s", format, dst.Type())
}

func assignSlice(dst reflect.Value, sv reflect.Value) error {
	if dst.Type() == bytesType || dst.Type().Elem().Kind() == reflect.Uint8 {
		switch v := sv.Interface().(type) {
		case []byte:
			dst.SetBytes(append([]byte(nil), v...))
			return nil
		case string:
			dst.SetBytes([]byte(v))
			return nil
		}
	}
	if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
		return fmt.Errorf("cannot convert %s to %s", sv.Type(), dst.Type())
	}
	out := reflect.MakeSlice(dst.Type(), sv.Len(), sv.Len())
	for i := 0; i < sv.Len(); i++ {
		elem := sv.Index(i).Interface()
		if rowset.IsNull(elem) {
			if err := SetNull(out.Index(i)); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			continue
		}
		if err := Assign(out.Index(i), elem, ""); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	dst.Set(out)
	return nil
}

func asString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case bool:
		return strconv.FormatBool(v), nil
	case decimal.Decimal:
		return v.String(), nil
	}
	// Named numeric types are stored as their number, not their display
	// text.
	sv := reflect.ValueOf(src)
	switch sv.Kind() {
	case reflect.String:
		return sv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(sv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(sv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(sv.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(sv.Float(), 'g', -1, 64), nil
	}
	if v, ok := src.(fmt.Stringer); ok {
		return v.String(), nil
	}
	return "", fmt.Errorf("cannot convert %T to string", src)
}

func asBool(src any) (bool, error) {
	switch v := src.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	case []byte:
		return strconv.ParseBool(strings.TrimSpace(string(v)))
	}
	sv := reflect.ValueOf(src)
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch sv.Int() {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return false, fmt.Errorf("cannot convert %d to bool", sv.Int())
	case reflect.Bool:
		return sv.Bool(), nil
	}
	return false, fmt.Errorf("cannot convert %T to bool", src)
}

func asInt64(src any) (int64, error) {
	switch v := src.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
	case decimal.Decimal:
		if !v.IsInteger() {
			return 0, fmt.Errorf("cannot convert %s to integer without loss", v)
		}
		if !v.BigInt().IsInt64() {
			return 0, fmt.Errorf("value %s overflows int64", v)
		}
		return v.IntPart(), nil
	}
	sv := reflect.ValueOf(src)
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return sv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := sv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := sv.Float()
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("cannot convert %g to integer without loss", f)
		}
		// float64(math.MaxInt64) rounds up to 2^63, so the bounds are
		// compared as powers of two.
		if f >= 1<<63 || f < -(1<<63) {
			return 0, fmt.Errorf("value %g overflows int64", f)
		}
		return int64(f), nil
	case reflect.String:
		return strconv.ParseInt(strings.TrimSpace(sv.String()), 10, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to integer", src)
}

// asUint64 converts sv for an unsigned destination of type t. Unsigned
// sources keep their full range.
func asUint64(sv reflect.Value, t reflect.Type) (uint64, error) {
	switch sv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return sv.Uint(), nil
	case reflect.String:
		if u, err := strconv.ParseUint(strings.TrimSpace(sv.String()), 10, 64); err == nil {
			return u, nil
		}
	case reflect.Slice:
		if b, ok := sv.Interface().([]byte); ok {
			if u, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64); err == nil {
				return u, nil
			}
		}
	}
	n, err := asInt64(sv.Interface())
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("value %d overflows %s", n, t)
	}
	return uint64(n), nil
}

func asFloat64(src any) (float64, error) {
	switch v := src.(type) {
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	case decimal.Decimal:
		return v.InexactFloat64(), nil
	}
	sv := reflect.ValueOf(src)
	switch sv.Kind() {
	case reflect.Float32, reflect.Float64:
		return sv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(sv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(sv.Uint()), nil
	}
	return 0, fmt.Errorf("cannot convert %T to float", src)
}

func asTime(src any, format string) (time.Time, error) {
	var s string
	switch v := src.(type) {
	case time.Time:
		return v, nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case int64:
		if format == "" {
			return time.Unix(v, 0).UTC(), nil
		}
		return time.Time{}, fmt.Errorf("cannot parse %T with format %q", src, format)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time.Time", src)
	}
	s = strings.TrimSpace(s)
	if format != "" {
		return time.Parse(format, s)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as time", s)
}

func asDecimal(src any) (decimal.Decimal, error) {
	switch v := src.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case []byte:
		return decimal.NewFromString(strings.TrimSpace(string(v)))
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	}
	n, err := asInt64(src)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("cannot convert %T to decimal", src)
	}
	return decimal.NewFromInt(n), nil
}

func asUUID(src any) (uuid.UUID, error) {
	switch v := src.(type) {
	case uuid.UUID:
		return v, nil
	case [16]byte:
		return uuid.UUID(v), nil
	case string:
		return uuid.Parse(strings.TrimSpace(v))
	case []byte:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		return uuid.ParseBytes(v)
	}
	return uuid.UUID{}, fmt.Errorf("cannot convert %T to uuid", src)
}
