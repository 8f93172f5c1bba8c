package naming

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"cdjexport/internal/config"
	"cdjexport/internal/services"
)

// Rules describes what a device accepts in a file name.
type Rules struct {
	// MaxLength is the byte ceiling for a full name including extension.
	MaxLength int
	// Allowed lists punctuation permitted besides ASCII letters and digits.
	Allowed        string
	Separator      rune
	Lowercase      bool
	PositionPrefix bool
	PositionWidth  int
	Fallback       string
}

// DefaultRules returns the rules for the default device section.
func DefaultRules() Rules {
	return RulesFromConfig(config.Default().Device)
}

// RulesFromConfig converts a validated device section into Rules.
func RulesFromConfig(d config.Device) Rules {
	sep, _ := utf8.DecodeRuneInString(d.Separator)
	if sep == utf8.RuneError {
		sep = '_'
	}
	return Rules{
		MaxLength:      d.MaxNameLength,
		Allowed:        d.AllowedPunctuation,
		Separator:      sep,
		Lowercase:      d.Lowercase,
		PositionPrefix: d.PositionPrefix,
		PositionWidth:  d.PositionWidth,
		Fallback:       d.FallbackName,
	}
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func (r Rules) permits(c rune) bool {
	return isAlnum(c) || c == r.Separator || strings.ContainsRune(r.Allowed, c)
}

// collisionMark is the character placed before a collision counter.
func (r Rules) collisionMark() string {
	if strings.ContainsRune(r.Allowed, '-') {
		return "-"
	}
	return string(r.Separator)
}

// Check reports whether name satisfies the rules. The extension may contain
// only letters and digits.
func (r Rules) Check(name string) error {
	if name == "" {
		return violation(name, "empty name")
	}
	if r.MaxLength > 0 && len(name) > r.MaxLength {
		return violation(name, fmt.Sprintf("longer than %d bytes", r.MaxLength))
	}
	stem, ext := splitExt(name)
	if stem == "" {
		return violation(name, "empty stem")
	}
	for _, c := range stem {
		if !r.permits(c) {
			return violation(name, fmt.Sprintf("character %q not permitted", c))
		}
	}
	for _, c := range strings.TrimPrefix(ext, ".") {
		if !isAlnum(c) {
			return violation(name, fmt.Sprintf("extension character %q not permitted", c))
		}
	}
	return nil
}

func violation(name, reason string) error {
	return services.Wrap(services.ErrFilenameConstraint, "naming", "check", fmt.Sprintf("%q: %s", name, reason), nil)
}

// splitExt splits at the last dot. A leading dot is part of the stem.
func splitExt(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}
