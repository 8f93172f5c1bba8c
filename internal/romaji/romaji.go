package romaji

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Transliterator turns arbitrary text into Latin script.
type Transliterator interface {
	Romanize(text string) string
}

// Segment is one word of the input. Reading holds the katakana reading when
// the provider knows one.
type Segment struct {
	Surface string
	Reading string
}

// ReadingProvider splits text into segments with optional readings.
type ReadingProvider interface {
	Segments(text string) []Segment
}

// Converter implements Transliterator on top of a ReadingProvider.
type Converter struct {
	readings ReadingProvider
}

// NewConverter builds a Converter. A nil provider limits conversion to kana;
// kanji then pass through unchanged.
func NewConverter(readings ReadingProvider) *Converter {
	return &Converter{readings: readings}
}

// Romanize returns the Latin-script rendering of text.
func (c *Converter) Romanize(text string) string {
	text = norm.NFKC.String(text)
	if text == "" {
		return ""
	}

	var segments []Segment
	if c != nil && c.readings != nil {
		segments = c.readings.Segments(text)
	}
	if len(segments) == 0 {
		segments = []Segment{{Surface: text}}
	}

	// Kana conversion runs over the joined readings so sokuon and the
	// prolonged sound mark still see their neighbours across word boundaries.
	var b strings.Builder
	b.Grow(len(text))
	for _, seg := range segments {
		source := seg.Surface
		if seg.Reading != "" && ContainsJapanese(seg.Surface) && isKanaOnly(seg.Reading) {
			source = seg.Reading
		}
		b.WriteString(source)
	}
	return StripDiacritics(KanaToRomaji(b.String()))
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripDiacritics removes combining marks from Latin letters (é becomes e).
func StripDiacritics(text string) string {
	out, _, err := transform.String(diacriticStripper, text)
	if err != nil {
		return text
	}
	return out
}

// ContainsJapanese reports whether text holds any kana or CJK ideograph.
func ContainsJapanese(text string) bool {
	for _, r := range text {
		if isKana(r) || unicode.Is(unicode.Han, r) || r == prolongedSoundMark {
			return true
		}
	}
	return false
}

func isKanaOnly(text string) bool {
	for _, r := range text {
		if !isKana(r) && r != prolongedSoundMark {
			return false
		}
	}
	return text != ""
}

func isKana(r rune) bool {
	return unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r)
}
