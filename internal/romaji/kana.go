package romaji

import "strings"

const (
	prolongedSoundMark = 'ー'
	smallTsu           = 'ッ'
	hiraganaStart      = 'ぁ'
	hiraganaEnd        = 'ゖ'
	hiraganaOffset     = 'ァ' - 'ぁ'
)

// Modified Hepburn, keyed by katakana. Two-rune keys are tried first.
var kanaTable = map[string]string{
	"ア": "a", "イ": "i", "ウ": "u", "エ": "e", "オ": "o",
	"カ": "ka", "キ": "ki", "ク": "ku", "ケ": "ke", "コ": "ko",
	"ガ": "ga", "ギ": "gi", "グ": "gu", "ゲ": "ge", "ゴ": "go",
	"サ": "sa", "シ": "shi", "ス": "su", "セ": "se", "ソ": "so",
	"ザ": "za", "ジ": "ji", "ズ": "zu", "ゼ": "ze", "ゾ": "zo",
	"タ": "ta", "チ": "chi", "ツ": "tsu", "テ": "te", "ト": "to",
	"ダ": "da", "ヂ": "ji", "ヅ": "zu", "デ": "de", "ド": "do",
	"ナ": "na", "ニ": "ni", "ヌ": "nu", "ネ": "ne", "ノ": "no",
	"ハ": "ha", "ヒ": "hi", "フ": "fu", "ヘ": "he", "ホ": "ho",
	"バ": "ba", "ビ": "bi", "ブ": "bu", "ベ": "be", "ボ": "bo",
	"パ": "pa", "ピ": "pi", "プ": "pu", "ペ": "pe", "ポ": "po",
	"マ": "ma", "ミ": "mi", "ム": "mu", "メ": "me", "モ": "mo",
	"ヤ": "ya", "ユ": "yu", "ヨ": "yo",
	"ラ": "ra", "リ": "ri", "ル": "ru", "レ": "re", "ロ": "ro",
	"ワ": "wa", "ヰ": "i", "ヱ": "e", "ヲ": "o", "ン": "n",
	"ヴ": "vu",
	"ァ": "a", "ィ": "i", "ゥ": "u", "ェ": "e", "ォ": "o",
	"ャ": "ya", "ュ": "yu", "ョ": "yo", "ヮ": "wa", "ヵ": "ka", "ヶ": "ke",

	"キャ": "kya", "キュ": "kyu", "キョ": "kyo",
	"ギャ": "gya", "ギュ": "gyu", "ギョ": "gyo",
	"シャ": "sha", "シュ": "shu", "ショ": "sho", "シェ": "she",
	"ジャ": "ja", "ジュ": "ju", "ジョ": "jo", "ジェ": "je",
	"チャ": "cha", "チュ": "chu", "チョ": "cho", "チェ": "che",
	"ヂャ": "ja", "ヂュ": "ju", "ヂョ": "jo",
	"ニャ": "nya", "ニュ": "nyu", "ニョ": "nyo",
	"ヒャ": "hya", "ヒュ": "hyu", "ヒョ": "hyo",
	"ビャ": "bya", "ビュ": "byu", "ビョ": "byo",
	"ピャ": "pya", "ピュ": "pyu", "ピョ": "pyo",
	"ミャ": "mya", "ミュ": "myu", "ミョ": "myo",
	"リャ": "rya", "リュ": "ryu", "リョ": "ryo",
	"ティ": "ti", "テュ": "tyu", "ディ": "di", "デュ": "dyu",
	"トゥ": "tu", "ドゥ": "du",
	"ファ": "fa", "フィ": "fi", "フェ": "fe", "フォ": "fo", "フュ": "fyu",
	"ウィ": "wi", "ウェ": "we", "ウォ": "wo",
	"ヴァ": "va", "ヴィ": "vi", "ヴェ": "ve", "ヴォ": "vo", "ヴュ": "vyu",
	"ツァ": "tsa", "ツィ": "tsi", "ツェ": "tse", "ツォ": "tso",
	"イェ": "ye", "クァ": "kwa", "グァ": "gwa",
}

// KanaToRomaji converts hiragana and katakana in text to romaji. Characters
// that are not kana pass through unchanged.
//
// Sokuon doubles the following consonant (ッチ becomes tchi), the prolonged
// sound mark repeats the previous vowel, and ン is always n.
func KanaToRomaji(text string) string {
	src := foldHiragana([]rune(text))
	var b strings.Builder
	b.Grow(len(src) * 2)

	for i := 0; i < len(src); {
		r := src[i]
		switch r {
		case smallTsu:
			next, _ := syllableAt(src, i+1)
			b.WriteString(geminate(next))
			i++
			continue
		case prolongedSoundMark:
			if v, ok := lastVowel(b.String()); ok {
				b.WriteByte(v)
			}
			i++
			continue
		}
		if roma, n := syllableAt(src, i); n > 0 {
			b.WriteString(roma)
			i += n
			continue
		}
		b.WriteRune(r)
		i++
	}
	return b.String()
}

// syllableAt returns the romaji for the kana starting at i and the number of
// runes consumed, or zero when src[i] is not a known kana.
func syllableAt(src []rune, i int) (string, int) {
	if i >= len(src) {
		return "", 0
	}
	if i+1 < len(src) {
		if roma, ok := kanaTable[string(src[i:i+2])]; ok {
			return roma, 2
		}
	}
	if roma, ok := kanaTable[string(src[i])]; ok {
		return roma, 1
	}
	return "", 0
}

func geminate(next string) string {
	if next == "" {
		return ""
	}
	if strings.HasPrefix(next, "ch") {
		return "t"
	}
	switch c := next[0]; c {
	case 'a', 'i', 'u', 'e', 'o', 'n':
		return ""
	default:
		return string(c)
	}
}

func lastVowel(s string) (byte, bool) {
	if s == "" {
		return 0, false
	}
	switch c := s[len(s)-1]; c {
	case 'a', 'i', 'u', 'e', 'o':
		return c, true
	}
	return 0, false
}

func foldHiragana(src []rune) []rune {
	out := make([]rune, len(src))
	for i, r := range src {
		if r >= hiraganaStart && r <= hiraganaEnd {
			r += hiraganaOffset
		}
		out[i] = r
	}
	return out
}
