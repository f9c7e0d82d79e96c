package content

import "strings"

// TagSlug is the identity of a tag label: trimmed and lower-cased.
func TagSlug(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// NormalizeTags trims labels, drops empty ones and removes labels whose slug
// was already seen. The first spelling wins and input order is kept.
func NormalizeTags(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		key := TagSlug(l)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}
