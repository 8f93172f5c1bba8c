package export

import (
	"path/filepath"
	"strings"
)

// Directory names the player expects at the root of the stick.
const (
	PioneerDir  = "PIONEER"
	ContentsDir = "CONTENTS"
)

// Layout lists the directories an export writes under a destination root.
type Layout struct {
	Root     string
	Pioneer  string
	Contents string
	Music    string
	// Target is where track files go: Music itself, or a per-playlist
	// folder below it.
	Target string
}

// NewLayout builds the layout for root. An empty playlistFolder puts files
// directly in the music directory.
func NewLayout(root, musicDir, playlistFolder string) Layout {
	root = filepath.Clean(root)
	musicDir = strings.Trim(filepath.ToSlash(musicDir), "/")
	if musicDir == "" {
		musicDir = "MUSIC"
	}
	l := Layout{
		Root:     root,
		Pioneer:  filepath.Join(root, PioneerDir),
		Contents: filepath.Join(root, PioneerDir, ContentsDir),
		Music:    filepath.Join(root, filepath.FromSlash(musicDir)),
	}
	l.Target = l.Music
	if playlistFolder != "" {
		l.Target = filepath.Join(l.Music, playlistFolder)
	}
	return l
}

// Dirs returns the directories to create, parents first.
func (l Layout) Dirs() []string {
	dirs := []string{l.Pioneer, l.Contents, l.Music}
	if l.Target != l.Music {
		dirs = append(dirs, l.Target)
	}
	return dirs
}
