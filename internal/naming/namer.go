package naming

import (
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cdjexport/internal/library"
	"cdjexport/internal/logging"
	"cdjexport/internal/romaji"
)

// Assignment pairs a track with its device file name.
type Assignment struct {
	Track    library.Track
	FileName string
	// Fallback is set when the romanized name was unusable and the
	// configured fallback stem was used instead.
	Fallback bool
}

// Namer assigns device file names to playlist tracks.
type Namer struct {
	translit romaji.Transliterator
	rules    Rules
	logger   *slog.Logger
	lower    cases.Caser
	fold     cases.Caser
}

// NewNamer builds a Namer. The transliterator is used for every track and
// playlist name.
func NewNamer(translit romaji.Transliterator, rules Rules, logger *slog.Logger) *Namer {
	if rules.Fallback == "" {
		rules.Fallback = "track"
	}
	if rules.Separator == 0 {
		rules.Separator = '_'
	}
	return &Namer{
		translit: translit,
		rules:    rules,
		logger:   logging.NewComponentLogger(logger, "naming"),
		lower:    cases.Lower(language.Und),
		fold:     cases.Fold(),
	}
}

// Rules returns the rules the Namer applies.
func (n *Namer) Rules() Rules {
	return n.rules
}

// Stem romanizes and sanitizes text without prefix or length limits. An
// empty result means nothing usable survived.
func (n *Namer) Stem(text string) string {
	stem := n.rules.Sanitize(n.translit.Romanize(text))
	if n.rules.Lowercase {
		stem = n.lower.String(stem)
	}
	return stem
}

// FileName returns the device name for a single file name as if it were the
// only entry of a playlist at position pos.
func (n *Namer) FileName(name string, pos int) string {
	out := n.Assign([]library.Track{{Path: name, Position: pos}})
	return out[0].FileName
}

// Assign returns one file name per track, in track order. Names are unique
// under case-insensitive comparison.
func (n *Namer) Assign(tracks []library.Track) []Assignment {
	width := n.rules.PositionWidth
	if digits := len(strconv.Itoa(len(tracks))); digits > width {
		width = digits
	}

	taken := make(map[string]bool, len(tracks))
	out := make([]Assignment, 0, len(tracks))
	for i, track := range tracks {
		pos := track.Position
		if pos <= 0 {
			pos = i + 1
		}
		stemSrc, ext := splitExt(track.FileName())
		ext = sanitizeExt(ext)

		stem := n.Stem(stemSrc)
		fallback := false
		if stem == "" {
			stem = n.rules.Fallback
			fallback = true
			n.logger.Debug("romanized name is empty; using fallback stem",
				logging.String("source", track.FileName()),
				logging.String("fallback", stem),
				logging.String(logging.FieldEventType, "filename_fallback"),
			)
		}

		prefix := ""
		if n.rules.PositionPrefix {
			prefix = fmt.Sprintf("%0*d%c", width, pos, n.rules.Separator)
		}

		name := n.compose(prefix, stem, "", ext)
		if err := n.rules.Check(name); name == "" || err != nil {
			name = n.guardName(pos, width, "", ext)
			fallback = true
			logging.WarnWithContext(n.logger, "file name fell back to a generated name", "filename_fallback",
				logging.String("source", track.FileName()),
				logging.String("name", name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "rename the source file or raise device.max_name_length"),
				logging.String(logging.FieldImpact, "track is exported under a generic name"),
			)
		}
		for c := 2; taken[n.fold.String(name)]; c++ {
			suffix := n.rules.collisionMark() + strconv.Itoa(c)
			name = n.compose(prefix, stem, suffix, ext)
			if name == "" || n.rules.Check(name) != nil {
				name = n.guardName(pos, width, suffix, ext)
			}
		}
		taken[n.fold.String(name)] = true
		out = append(out, Assignment{Track: track, FileName: name, Fallback: fallback})
	}
	return out
}

// compose joins the parts, cutting the stem so the result fits MaxLength.
// It returns "" when no stem byte fits.
func (n *Namer) compose(prefix, stem, suffix, ext string) string {
	if n.rules.MaxLength > 0 {
		stem = truncate(stem, n.rules.MaxLength-len(prefix)-len(suffix)-len(ext))
		if stem == "" {
			return ""
		}
	}
	return prefix + stem + suffix + ext
}

// guardName is the name of last resort: fallback stem, position and
// collision suffix. Under MaxLength the fallback stem is cut first and the
// extension is dropped only when the digits and suffix leave no room for it.
func (n *Namer) guardName(pos, width int, suffix, ext string) string {
	digits := fmt.Sprintf("%0*d", width, pos)
	stem := n.rules.Fallback
	if limit := n.rules.MaxLength; limit > 0 {
		if len(digits)+len(suffix)+len(ext) > limit {
			ext = ""
		}
		stem = truncate(stem, limit-len(digits)-len(suffix)-len(ext))
	}
	return stem + digits + suffix + ext
}

// FolderName returns the directory name used for a playlist when files are
// grouped per playlist.
func (n *Namer) FolderName(playlist string) string {
	name := n.Stem(playlist)
	if n.rules.MaxLength > 0 {
		name = truncate(name, n.rules.MaxLength)
	}
	if name == "" {
		name = "playlist"
	}
	return name
}
