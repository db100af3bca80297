package client

import "strings"

// Matches reports whether a bookmark satisfies the active (query, tag) pair.
// It is the single source of filtering truth on the client and mirrors the
// gateway's ILIKE/containment semantics: tag requires exact membership, query
// matches case-insensitively as a substring of title, url or description, and
// both checks AND together. An empty query or tag passes its check.
func Matches(b Bookmark, query, tag string) bool {
	if tag != "" {
		found := false
		for _, t := range b.Tags {
			if t == tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if query != "" {
		q := strings.ToLower(query)
		if !strings.Contains(strings.ToLower(b.Title), q) &&
			!strings.Contains(strings.ToLower(b.URL), q) &&
			!strings.Contains(strings.ToLower(b.Description), q) {
			return false
		}
	}

	return true
}
