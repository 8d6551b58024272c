package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrim(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only whitespace", " \t\r\n ", ""},
		{"leading and trailing", "  AAPL\t", "AAPL"},
		{"crlf line", "1,AAPL,PRICE_UPDATE,1,1,B\r\n", "1,AAPL,PRICE_UPDATE,1,1,B"},
		{"inner whitespace kept", " a b ", "a b"},
		{"vertical tab is data", "\vX\v", "\vX\v"},
		{"non-breaking space is data", "\u00a0X", "\u00a0X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Trim(tt.in))
		})
	}
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{""}, Split("", ','))
	assert.Equal(t, []string{"a"}, Split("a", ','))
	assert.Equal(t, []string{"a", "", "b"}, Split("a,,b", ','))
	assert.Equal(t, []string{"", ""}, Split(",", ','))
	assert.Equal(t, []string{"1", "AAPL", "PRICE_UPDATE", "100.0", "10", "B"},
		Split("1,AAPL,PRICE_UPDATE,100.0,10,B", ','))
}
