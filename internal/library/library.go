package library

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"cdjexport/internal/config"
	"cdjexport/internal/services"
)

// Track is a single playlist entry as recorded in the rekordbox library.
type Track struct {
	ID       string
	Path     string
	Title    string
	Artist   string
	Position int
}

// FileName returns the base name of the track's file. rekordbox stores
// Windows paths with either separator, so both are honoured.
func (t Track) FileName() string {
	path := t.Path
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	return path
}

// Playlist is a named ordered list of tracks.
type Playlist struct {
	ID     string
	Name   string
	Folder string
	Tracks []Track
}

// PlaylistSummary describes a playlist without loading its tracks.
type PlaylistSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Folder     string `json:"folder,omitempty"`
	TrackCount int    `json:"track_count"`
}

// Path returns Folder/Name, the form accepted by lookups to disambiguate
// playlists that share a name. Slashes inside names are kept as they are;
// MatchPlaylists resolves them.
func (p PlaylistSummary) Path() string {
	if p.Folder == "" {
		return p.Name
	}
	return p.Folder + "/" + p.Name
}

// Source reads playlists from a DJ library. Implementations never write.
type Source interface {
	Playlist(ctx context.Context, name string) (*Playlist, error)
	Playlists(ctx context.Context) ([]PlaylistSummary, error)
}

// Opener constructs a Source for a library file.
type Opener func(path string, logger *slog.Logger) Source

var openers = map[string]Opener{}

// Register makes a reader available under a library format name. It is
// called from the reader packages' init functions.
func Register(format string, open Opener) {
	openers[format] = open
}

// Open selects the reader for the configured library.
func Open(cfg config.Library, logger *slog.Logger) (Source, error) {
	path := strings.TrimSpace(cfg.DatabasePath)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "library", "open", "library.database_path is not set (use --database or CDJEXPORT_DATABASE)", nil)
	}
	format := DetectFormat(cfg.Format, path)
	open, ok := openers[format]
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "library", "open", fmt.Sprintf("no reader registered for format %q", format), nil)
	}
	return open(path, logger), nil
}

// DetectFormat resolves "auto" by file extension.
func DetectFormat(format, path string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "" && format != config.FormatAuto {
		return format
	}
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return config.FormatXML
	}
	return config.FormatSQLite
}

// MatchPlaylists returns the indexes of candidates selected by lookup, top
// level first. The whole lookup is tried as a playlist name before any "/" in
// it is read as a folder separator, so names such as "AC/DC Set" resolve.
// Every split point is tried because folder names may contain "/" as well.
func MatchPlaylists(lookup string, candidates []PlaylistSummary) []int {
	lookup = strings.TrimSpace(lookup)
	if lookup == "" {
		return nil
	}
	var out []int
	for i, c := range candidates {
		if c.Name == lookup {
			out = append(out, i)
		}
	}
	if len(out) == 0 {
		for i, c := range candidates {
			if c.Folder != "" && matchesPath(lookup, c) {
				out = append(out, i)
			}
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return candidates[out[a]].Folder < candidates[out[b]].Folder
	})
	return out
}

func matchesPath(lookup string, c PlaylistSummary) bool {
	for i := strings.Index(lookup, "/"); i >= 0; {
		folder := strings.Trim(lookup[:i], "/ ")
		name := strings.TrimSpace(lookup[i+1:])
		if folder == c.Folder && name == c.Name {
			return true
		}
		next := strings.Index(lookup[i+1:], "/")
		if next < 0 {
			break
		}
		i += next + 1
	}
	return false
}

// FileURIToPath converts a rekordbox "file://localhost/..." location into a
// local path.
func FileURIToPath(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parse location %q: %w", location, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported location scheme %q", u.Scheme)
	}
	path := u.Path
	// file://localhost/C:/Music/a.mp3 parses to /C:/Music/a.mp3
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return path, nil
}

// NotFound builds the error returned when no playlist matches lookup.
func NotFound(lookup string) error {
	return services.Wrap(services.ErrPlaylistNotFound, "library", "lookup", fmt.Sprintf("no playlist named %q", lookup), nil)
}
