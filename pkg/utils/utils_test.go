package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "plain comma separated",
			input: "go,web,bookmarks",
			want:  []string{"go", "web", "bookmarks"},
		},
		{
			name:  "whitespace around tags is trimmed",
			input: "  go , web ,bookmarks  ",
			want:  []string{"go", "web", "bookmarks"},
		},
		{
			name:  "empty entries are dropped",
			input: "go,,web,",
			want:  []string{"go", "web"},
		},
		{
			name:  "only commas and whitespace yields no tags",
			input: "  ,  ",
			want:  []string{},
		},
		{
			name:  "empty input yields no tags",
			input: "",
			want:  []string{},
		},
		{
			name:  "single tag",
			input: "react",
			want:  []string{"react"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags(tt.input))
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "trims and drops empties",
			input: []string{" go ", "", "  ", "web"},
			want:  []string{"go", "web"},
		},
		{
			name:  "deduplicates preserving first-seen order",
			input: []string{"go", "web", "go", " web "},
			want:  []string{"go", "web"},
		},
		{
			name:  "nil input yields empty slice",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTags(tt.input))
		})
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
	assert.False(t, Contains(nil, "a"))
}
