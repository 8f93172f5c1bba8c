// Package romaji converts Japanese and mixed-script text into Latin script.
//
// Conversion runs in three steps: NFKC normalization folds full-width and
// half-width forms, a ReadingProvider splits the text into words and supplies
// katakana readings for kanji, and a fixed modified-Hepburn table turns kana
// into romaji. Latin letters with diacritics lose their marks. The result is
// not yet filename-safe; package naming applies the device charset.
package romaji
