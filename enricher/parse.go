package enricher

import "strings"

const (
	titleMarker    = "TITLE:"
	categoryMarker = "CATEGORY:"
)

// parseTitleCategory extracts the title and category from a free-text model
// response expected to contain a TITLE: line and a CATEGORY: line. The first
// occurrence of each marker wins. A missing or empty field falls back to its
// default independently; the category is always repaired against the domain.
func parseTitleCategory(response string, domain Domain) (string, string) {
	title := DefaultTitle
	category := domain.Default()

	titleSeen := false
	categorySeen := false

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case !titleSeen && strings.HasPrefix(line, titleMarker):
			titleSeen = true
			if t := strings.TrimSpace(strings.TrimPrefix(line, titleMarker)); t != "" {
				title = t
			}
		case !categorySeen && strings.HasPrefix(line, categoryMarker):
			categorySeen = true
			if c := strings.TrimSpace(strings.TrimPrefix(line, categoryMarker)); c != "" {
				category = domain.Repair(c)
			}
		}
	}

	return title, category
}
