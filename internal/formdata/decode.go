package formdata

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// FieldError is a single property that could not be decoded.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + " " + e.Message
}

// Decode copies obj into the struct pointed to by dst using `form` tags.
// Supported field kinds are string, float64, int64 and bool, optionally behind
// a pointer. Floats must be finite. Pointer fields stay nil when the value is
// absent, empty, or one of the "null"/"undefined" placeholders browsers send
// for unset form values.
func Decode(obj Object, dst any) []FieldError {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("formdata: Decode needs a struct pointer, got %T", dst))
	}
	rv = rv.Elem()
	rt := rv.Type()

	var errs []FieldError
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		name := sf.Tag.Get("form")
		if name == "" || name == "-" {
			continue
		}
		raw, ok := obj[name]
		if !ok || blank(raw) {
			continue
		}
		if msg := set(rv.Field(i), raw); msg != "" {
			errs = append(errs, FieldError{Field: name, Message: msg})
		}
	}
	return errs
}

func set(field reflect.Value, raw string) string {
	target := field
	if field.Kind() == reflect.Pointer {
		target = reflect.New(field.Type().Elem()).Elem()
	}

	raw = strings.TrimSpace(raw)
	switch target.Kind() {
	case reflect.String:
		target.SetString(raw)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "must be a number"
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "must be a finite number"
		}
		target.SetFloat(f)
	case reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return "must be an integer"
		}
		target.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return "must be a boolean"
		}
		target.SetBool(b)
	default:
		panic(fmt.Sprintf("formdata: unsupported field kind %s", target.Kind()))
	}

	if field.Kind() == reflect.Pointer {
		field.Set(target.Addr())
	}
	return ""
}

func blank(raw string) bool {
	switch strings.TrimSpace(raw) {
	case "", "null", "undefined":
		return true
	}
	return false
}
