package str

import (
	"reflect"
	"strings"
	"unicode"
)

// Sanitize trims surrounding whitespace from every exported string field of the
// struct pointed to by v, including string fields in nested structs and slices.
// Non-struct pointers are ignored.
func Sanitize(v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return
	}
	sanitizeValue(rv.Elem())
}

func sanitizeValue(rv reflect.Value) {
	switch rv.Kind() {
	case reflect.String:
		if rv.CanSet() {
			rv.SetString(strings.TrimSpace(rv.String()))
		}
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			sanitizeValue(rv.Field(i))
		}
	case reflect.Slice:
		for i := 0; i < rv.Len(); i++ {
			sanitizeValue(rv.Index(i))
		}
	case reflect.Pointer:
		if !rv.IsNil() {
			sanitizeValue(rv.Elem())
		}
	}
}

// ToSnakeCase converts CamelCase and mixedCase identifiers to snake_case.
// Acronym runs stay together ("GPSLatitude" -> "gps_latitude").
// Used to render Go struct field names in API error messages.
func ToSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
