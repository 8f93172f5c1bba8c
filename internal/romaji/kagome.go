package romaji

import (
	"fmt"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// KagomeReadings supplies word segmentation and katakana readings from the
// kagome morphological analyzer with the IPA dictionary.
type KagomeReadings struct {
	tok *tokenizer.Tokenizer
}

// NewKagomeReadings loads the IPA dictionary and builds a tokenizer.
func NewKagomeReadings() (*KagomeReadings, error) {
	tok, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("init kagome tokenizer: %w", err)
	}
	return &KagomeReadings{tok: tok}, nil
}

// Segments implements ReadingProvider.
func (k *KagomeReadings) Segments(text string) []Segment {
	if k == nil || k.tok == nil {
		return nil
	}
	tokens := k.tok.Tokenize(text)
	out := make([]Segment, 0, len(tokens))
	for _, token := range tokens {
		seg := Segment{Surface: token.Surface}
		if reading, ok := token.Reading(); ok && reading != "*" {
			seg.Reading = reading
		}
		out = append(out, seg)
	}
	return out
}

// NewDefault returns a Converter backed by kagome.
func NewDefault() (*Converter, error) {
	readings, err := NewKagomeReadings()
	if err != nil {
		return nil, err
	}
	return NewConverter(readings), nil
}
