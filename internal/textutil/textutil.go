// Package textutil holds the small string helpers the feed parser is built on.
package textutil

import "strings"

// cutset is the whitespace recognised around lines and fields.
// Only ASCII space, tab, CR and LF count; other Unicode spaces are data.
const cutset = " \t\r\n"

// Trim removes leading and trailing whitespace from s.
func Trim(s string) string {
	return strings.Trim(s, cutset)
}

// Split splits s on every occurrence of delim.
//
// Empty fields are preserved, so "a,,b" yields three parts and "" yields
// one empty part. The returned strings share memory with s.
func Split(s string, delim byte) []string {
	return strings.Split(s, string(delim))
}
