package plugin

import (
	"regexp"
	"strings"
)

var (
	handlePattern = regexp.MustCompile(`^_?[a-zA-Z][\w-]*$`)
	repeatedDash  = regexp.MustCompile(`-{2,}`)
)

// ValidHandle reports whether h is an acceptable plugin handle.
func ValidHandle(h string) bool {
	return handlePattern.MatchString(h)
}

// NormalizeHandle converts a camel- or Pascal-case handle to kebab-case.
// Handles that are already lowercase are returned unchanged; changed reports
// whether the legacy format was rewritten.
func NormalizeHandle(h string) (normalized string, changed bool) {
	if strings.ToLower(h) == h {
		return h, false
	}

	var b strings.Builder
	b.Grow(len(h) + 4)
	prevUpper := false
	for i := 0; i < len(h); i++ {
		c := h[i]
		upper := c >= 'A' && c <= 'Z'
		if upper && !prevUpper {
			b.WriteByte('-')
		}
		prevUpper = upper
		b.WriteByte(c)
	}

	s := strings.ReplaceAll(b.String(), "_", "-")
	s = strings.ToLower(strings.Trim(s, "-"))
	s = repeatedDash.ReplaceAllString(s, "-")
	return s, true
}
