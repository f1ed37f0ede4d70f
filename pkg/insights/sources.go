package insights

import "strings"

// DefaultSourceTitle labels grounding sources that arrive without a title.
const DefaultSourceTitle = "Source"

// Source is a citable web page returned with a grounded answer.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// NormalizeSources drops entries without a URI and defaults empty titles.
// Provider order is preserved and repeated URIs are kept.
func NormalizeSources(in []Source) []Source {
	out := make([]Source, 0, len(in))
	for _, src := range in {
		uri := strings.TrimSpace(src.URI)
		if uri == "" {
			continue
		}
		title := strings.TrimSpace(src.Title)
		if title == "" {
			title = DefaultSourceTitle
		}
		out = append(out, Source{URI: uri, Title: title})
	}
	return out
}
