// Package formdata rebuilds arrays of objects from flattened multipart fields.
//
// Clients encode an array of objects by sending one repeated field per
// property, named "{ObjectName}_{property}". Element i of every repeated field
// belongs to object i.
package formdata

import (
	"mime/multipart"
	"sort"
	"strings"
)

// Body is a flattened submission. A key with a single value is a scalar.
type Body map[string][]string

// Object is one reconstructed element, keyed by property name.
type Object map[string]string

// FromMultipart copies the value part of a multipart form, folding keys sent
// with a trailing "[]" into their plain name.
func FromMultipart(form *multipart.Form) Body {
	body := Body{}
	if form == nil {
		return body
	}
	for key, values := range form.Value {
		k := normalizeKey(key)
		body[k] = append(body[k], values...)
	}
	return body
}

// Files returns the uploaded files sent under key, in submission order.
func Files(form *multipart.Form, key string) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	files := append([]*multipart.FileHeader{}, form.File[key]...)
	return append(files, form.File[key+"[]"]...)
}

// Scalar returns the first value sent for key.
func (b Body) Scalar(key string) (string, bool) {
	values, ok := b[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Scalars returns the top-level fields (keys without an object prefix).
func (b Body) Scalars() Object {
	obj := Object{}
	for key := range b {
		if strings.Contains(key, "_") {
			continue
		}
		if v, ok := b.Scalar(key); ok {
			obj[key] = v
		}
	}
	return obj
}

// Has reports whether any field of objectName was submitted.
func (b Body) Has(objectName string) bool {
	for key := range b {
		if _, ok := property(key, objectName); ok {
			return true
		}
	}
	return false
}

// CheckLengthOfObjectArrays reports whether every field of objectName carries
// the same number of values. No fields at all is consistent.
func CheckLengthOfObjectArrays(body Body, objectName string) bool {
	length := -1
	for key, values := range body {
		if _, ok := property(key, objectName); !ok {
			continue
		}
		if length == -1 {
			length = len(values)
			continue
		}
		if len(values) != length {
			return false
		}
	}
	return true
}

// MakeObjectArray distributes the fields of objectName into objects by index.
// Properties are not fixed: every "{objectName}_{prop}" key becomes a field.
func MakeObjectArray(body Body, objectName string) []Object {
	var objects []Object
	for key, values := range body {
		prop, ok := property(key, objectName)
		if !ok {
			continue
		}
		for i, v := range values {
			for len(objects) <= i {
				objects = append(objects, Object{})
			}
			objects[i][prop] = v
		}
	}
	if objects == nil {
		return []Object{}
	}
	return objects
}

// Flatten is the inverse of MakeObjectArray. Objects missing a property that
// others carry get an empty value so arrays stay aligned.
func Flatten(objectName string, objects []Object) Body {
	props := map[string]struct{}{}
	for _, obj := range objects {
		for prop := range obj {
			props[prop] = struct{}{}
		}
	}
	names := make([]string, 0, len(props))
	for prop := range props {
		names = append(names, prop)
	}
	sort.Strings(names)

	body := Body{}
	for _, prop := range names {
		key := objectName + "_" + prop
		values := make([]string, len(objects))
		for i, obj := range objects {
			values[i] = obj[prop]
		}
		body[key] = values
	}
	return body
}

func property(key, objectName string) (string, bool) {
	prefix, prop, found := strings.Cut(key, "_")
	if !found || prefix != objectName || prop == "" {
		return "", false
	}
	return prop, true
}

func normalizeKey(key string) string {
	return strings.TrimSuffix(key, "[]")
}
