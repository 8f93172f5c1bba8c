package naming

import "strings"

// Sanitize maps text onto the permitted charset. Every other character
// becomes the separator, separator runs collapse to one, and punctuation is
// trimmed from both ends.
func (r Rules) Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSep := false
	for _, c := range text {
		if !r.permits(c) || c == r.Separator {
			if !lastSep {
				b.WriteRune(r.Separator)
			}
			lastSep = true
			continue
		}
		b.WriteRune(c)
		lastSep = false
	}
	return trimPunct(b.String())
}

// sanitizeExt lowercases an extension and keeps only letters and digits.
func sanitizeExt(ext string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(strings.TrimPrefix(ext, ".")) {
		if isAlnum(c) {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "." + b.String()
}

func trimPunct(s string) string {
	return strings.TrimFunc(s, func(c rune) bool { return !isAlnum(c) })
}

// truncate cuts an ASCII stem to at most n bytes and trims the punctuation
// the cut may expose.
func truncate(stem string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(stem) > n {
		stem = stem[:n]
	}
	return trimPunct(stem)
}
