package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSingleLine(t *testing.T) {
	assert.Equal(t, "a b c", SingleLine("  a\n\tb   c \r\n"))
	assert.Equal(t, "", SingleLine(" \n "))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{name: "short string unchanged", input: "api", maxLen: 10, expected: "api"},
		{name: "exact length unchanged", input: "abcdefghij", maxLen: 10, expected: "abcdefghij"},
		{name: "long string cut", input: "abcdefghijkl", maxLen: 10, expected: "abcdefg..."},
		{name: "newlines collapsed before measuring", input: "ab\n\ncd", maxLen: 10, expected: "ab cd"},
		{name: "unicode counted by rune", input: "ééééééééé", maxLen: 6, expected: "ééé..."},
		{name: "maxLen clamped", input: "abcdefghij", maxLen: 1, expected: "ab..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.maxLen)
			assert.Equal(t, tt.expected, got)
			assert.LessOrEqual(t, len([]rune(got)), max(tt.maxLen, MinTruncateLen))
		})
	}
}

func TestTruncateMiddle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{name: "short string unchanged", input: "http://orders:8080", maxLen: 48, expected: "http://orders:8080"},
		{name: "keeps both ends", input: "abcdefghijkl", maxLen: 9, expected: "abc...jkl"},
		{name: "odd budget favours the head", input: "abcdefghijkl", maxLen: 10, expected: "abcd...jkl"},
		{name: "maxLen clamped", input: "abcdefghij", maxLen: 0, expected: "a...j"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateMiddle(tt.input, tt.maxLen))
		})
	}
}
