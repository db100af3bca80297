package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func bm(title, url, description string, tags ...string) Bookmark {
	return Bookmark{
		ID:          "b1",
		URL:         url,
		Title:       title,
		Description: description,
		Tags:        tags,
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		bookmark Bookmark
		query    string
		tag      string
		want     bool
	}{
		{
			name:     "no filters passes",
			bookmark: bm("Go blog", "https://go.dev/blog", ""),
			want:     true,
		},
		{
			name:     "query matches title case-insensitively",
			bookmark: bm("The Go Blog", "https://go.dev/blog", ""),
			query:    "go blog",
			want:     true,
		},
		{
			name:     "query matches url",
			bookmark: bm("reading list", "https://go.dev/blog", ""),
			query:    "go.dev",
			want:     true,
		},
		{
			name:     "query matches description",
			bookmark: bm("reading list", "https://example.com", "articles about Go"),
			query:    "about go",
			want:     true,
		},
		{
			name:     "missing description does not auto-pass",
			bookmark: bm("reading list", "https://example.com", ""),
			query:    "articles",
			want:     false,
		},
		{
			name:     "query with no match fails",
			bookmark: bm("reading list", "https://example.com", "articles"),
			query:    "rust",
			want:     false,
		},
		{
			name:     "tag requires exact membership",
			bookmark: bm("t", "https://example.com", "", "react", "hooks"),
			tag:      "react",
			want:     true,
		},
		{
			name:     "tag is not substring matched",
			bookmark: bm("t", "https://example.com", "", "reactive"),
			tag:      "react",
			want:     false,
		},
		{
			name:     "missing tag fails",
			bookmark: bm("t", "https://example.com", "", "testing"),
			tag:      "react",
			want:     false,
		},
		{
			name:     "query and tag AND together",
			bookmark: bm("React docs", "https://react.dev", "", "react"),
			query:    "docs",
			tag:      "react",
			want:     true,
		},
		{
			name:     "query passes but tag fails",
			bookmark: bm("React docs", "https://react.dev", "", "testing"),
			query:    "docs",
			tag:      "react",
			want:     false,
		},
		{
			name:     "tag passes but query fails",
			bookmark: bm("React docs", "https://react.dev", "", "react"),
			query:    "vue",
			tag:      "react",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.bookmark, tt.query, tt.tag))
		})
	}
}

// Two bookmarks tagged react and testing respectively; the react filter must
// select exactly the first.
func TestMatchesTagFilterScenario(t *testing.T) {
	first := bm("React docs", "https://react.dev", "", "react")
	second := bm("Testing guide", "https://testing.dev", "", "testing")

	assert.True(t, Matches(first, "", "react"))
	assert.False(t, Matches(second, "", "react"))
}
