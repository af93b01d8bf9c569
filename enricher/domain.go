package enricher

import "strings"

// Domain is the closed, ordered set of category labels a capture may receive.
// The second entry is the designated default, the general catch-all bucket.
type Domain []string

// DefaultDomain is the category set used when the config does not override it.
var DefaultDomain = Domain{
	"Vibe Coding",
	"Idea Collection",
	"Prompts Collection",
	"Personal Growth",
	"Fitness",
	"Good Design",
	"Mental Health",
}

// Default returns the catch-all label for unclassifiable content.
func (d Domain) Default() string {
	if len(d) > 1 {
		return d[1]
	}
	if len(d) == 1 {
		return d[0]
	}
	return ""
}

// Repair maps a raw model answer onto a domain label. Exact matches win;
// otherwise the first label related by case-insensitive substring (in either
// direction) is used; anything else falls back to the default label.
func (d Domain) Repair(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, label := range d {
		if raw == label {
			return label
		}
	}

	lower := strings.ToLower(raw)
	if lower == "" {
		return d.Default()
	}
	for _, label := range d {
		labelLower := strings.ToLower(label)
		if strings.Contains(lower, labelLower) || strings.Contains(labelLower, lower) {
			return label
		}
	}

	return d.Default()
}
