package textutil

import "strings"

// Slugify converts a display name to a lowercase hyphenated slug suitable
// for vendor and category identifiers. Returns "unknown" for input with no
// usable characters.
func Slugify(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	prevHyphen := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
			prevHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			prevHyphen = false
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "unknown"
	}
	return out
}

// CollapseSpaces normalizes runs of whitespace, slashes, and underscores to
// single spaces and trims the result.
func CollapseSpaces(value string) string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '\r', '_', '/':
			return true
		}
		return false
	})
	return strings.Join(fields, " ")
}
