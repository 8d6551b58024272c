package report

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the types a report may contain.
// There is no float type: prices are carried as decimal strings.
type Value interface {
	reportValue()
}

// String is a JSON string.
type String string

func (String) reportValue() {}

// Int is a JSON integer.
type Int int64

func (Int) reportValue() {}

// Bool is a JSON boolean.
type Bool bool

func (Bool) reportValue() {}

// Array is an ordered list of values.
type Array []Value

func (Array) reportValue() {}

// Object maps keys to values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) reportValue() {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 orders strings by UTF-16 code units. Byte order differs for
// characters above U+FFFF.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
