package governance

import "strings"

// Tag namespace. Only classifications under this prefix are ever added or
// removed; tags outside it belong to other tools and are never touched.
const TagPrefix = "TLX_"

// Atlan classification palette.
const (
	colorRed    = "Red"
	colorOrange = "Orange"
	colorGreen  = "Green"
)

// TagID derives the stable classification identifier for a raw category.
// Non-alphanumeric characters are stripped, not substituted, so
// "Shadow IT" and "shadow_it" both map to TLX_SHADOWIT.
func TagID(raw string) string {
	var b strings.Builder
	b.WriteString(TagPrefix)
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var redMarkers = []string{"critical", "exfiltrat", "breach", "shadow", "high"}

func tagColor(raw string) string {
	lowered := strings.ToLower(raw)
	for _, marker := range redMarkers {
		if strings.Contains(lowered, marker) {
			return colorRed
		}
	}
	return colorOrange
}
