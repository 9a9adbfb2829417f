package feed

import (
	"strings"
)

// matchesTag reports whether hashtags contains tag, compared case-insensitively.
func matchesTag(hashtags []string, tag string) bool {
	for _, h := range hashtags {
		if strings.EqualFold(h, tag) {
			return true
		}
	}
	return false
}

// matchesQuery reports whether the query appears as a case-insensitive
// substring of the body, the title, or any hashtag.
func matchesQuery(body, title string, hashtags []string, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(body), q) {
		return true
	}
	if strings.Contains(strings.ToLower(title), q) {
		return true
	}
	for _, h := range hashtags {
		if strings.Contains(strings.ToLower(h), q) {
			return true
		}
	}
	return false
}

// filterEntries applies the tag and query filters to the page's entries.
// Filtering runs after pagination, so a filtered page can come back shorter
// than the page size while more matches exist beyond the cursor.
func filterEntries(entries []Entry, bodies map[string]string, filters Filters) []Entry {
	if filters.Tag == "" && filters.Query == "" {
		return entries
	}

	kept := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if filters.Tag != "" && !matchesTag(entry.Hashtags, filters.Tag) {
			continue
		}
		if filters.Query != "" && !matchesQuery(bodies[entry.ChatID], entry.Title, entry.Hashtags, filters.Query) {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}
