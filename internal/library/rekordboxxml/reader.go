package rekordboxxml

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"

	"cdjexport/internal/config"
	"cdjexport/internal/library"
	"cdjexport/internal/logging"
	"cdjexport/internal/services"
)

func init() {
	library.Register(config.FormatXML, func(path string, logger *slog.Logger) library.Source {
		return New(path, logger)
	})
}

// NODE Type values in the PLAYLISTS tree.
const (
	nodeTypeFolder   = "0"
	nodeTypePlaylist = "1"
	// KeyType 1 keys playlist entries by Location instead of TrackID.
	keyTypeLocation = "1"
)

// Reader reads playlists from a rekordbox.xml export.
type Reader struct {
	path   string
	logger *slog.Logger
}

// New returns a Reader for the export at path.
func New(path string, logger *slog.Logger) *Reader {
	return &Reader{path: path, logger: logging.NewComponentLogger(logger, "rekordboxxml")}
}

func (r *Reader) load() (*xmlquery.Node, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, unreadable("open", fmt.Sprintf("cannot open %s", r.path), err)
	}
	defer f.Close()

	doc, err := xmlquery.Parse(f)
	if err != nil {
		return nil, unreadable("parse", fmt.Sprintf("%s is not valid xml", r.path), err)
	}
	if xmlquery.FindOne(doc, "/DJ_PLAYLISTS") == nil {
		return nil, unreadable("parse", fmt.Sprintf("%s is not a rekordbox collection export", r.path), nil)
	}
	return doc, nil
}

func (r *Reader) playlistNodes(doc *xmlquery.Node) ([]*xmlquery.Node, error) {
	nodes, err := xmlquery.QueryAll(doc, "/DJ_PLAYLISTS/PLAYLISTS//NODE[@Type='"+nodeTypePlaylist+"']")
	if err != nil {
		return nil, unreadable("list playlists", "query playlist nodes", err)
	}
	return nodes, nil
}

// Playlists lists every playlist in the export with its folder path.
func (r *Reader) Playlists(ctx context.Context) ([]library.PlaylistSummary, error) {
	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	nodes, err := r.playlistNodes(doc)
	if err != nil {
		return nil, err
	}
	out := make([]library.PlaylistSummary, 0, len(nodes))
	for i, n := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, library.PlaylistSummary{
			ID:         fmt.Sprintf("%d", i+1),
			Name:       n.SelectAttr("Name"),
			Folder:     folderPath(n),
			TrackCount: len(xmlquery.Find(n, "TRACK")),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Path()) < strings.ToLower(out[j].Path())
	})
	return out, nil
}

// Playlist loads a playlist by name, or by Folder/Name when a folder is given.
func (r *Reader) Playlist(ctx context.Context, lookup string) (*library.Playlist, error) {
	if strings.TrimSpace(lookup) == "" {
		return nil, library.NotFound(lookup)
	}
	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	nodes, err := r.playlistNodes(doc)
	if err != nil {
		return nil, err
	}

	candidates := make([]library.PlaylistSummary, 0, len(nodes))
	for i, n := range nodes {
		candidates = append(candidates, library.PlaylistSummary{
			ID:     fmt.Sprintf("%d", i+1),
			Name:   n.SelectAttr("Name"),
			Folder: folderPath(n),
		})
	}
	matches := library.MatchPlaylists(lookup, candidates)
	if len(matches) == 0 {
		return nil, library.NotFound(lookup)
	}
	if len(matches) > 1 {
		paths := make([]string, 0, len(matches))
		for _, i := range matches {
			paths = append(paths, candidates[i].Path())
		}
		logging.WarnWithContext(r.logger, "playlist name is ambiguous; using first match", "playlist_ambiguous",
			logging.String(logging.FieldPlaylist, candidates[matches[0]].Name),
			logging.String("selected", paths[0]),
			logging.Any("candidates", paths),
			logging.String(logging.FieldErrorHint, "pass Folder/Name to select a specific playlist"),
			logging.String(logging.FieldImpact, "other playlists with this name were ignored"),
		)
	}

	chosen := candidates[matches[0]]
	node := nodes[matches[0]]
	collection, err := indexCollection(doc, node.SelectAttr("KeyType") == keyTypeLocation)
	if err != nil {
		return nil, err
	}

	playlist := &library.Playlist{
		ID:     chosen.ID,
		Name:   chosen.Name,
		Folder: chosen.Folder,
	}
	for _, entry := range xmlquery.Find(node, "TRACK") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := entry.SelectAttr("Key")
		track, ok := collection[key]
		if !ok {
			logging.WarnWithContext(r.logger, "playlist entry not in collection; skipping", "track_unresolved",
				logging.String(logging.FieldPlaylist, chosen.Name),
				logging.String("key", key),
				logging.String(logging.FieldErrorHint, "re-export the collection from rekordbox"),
				logging.String(logging.FieldImpact, "track will not be exported"),
			)
			continue
		}
		track.Position = len(playlist.Tracks) + 1
		playlist.Tracks = append(playlist.Tracks, track)
	}
	r.logger.Debug("playlist loaded",
		logging.String(logging.FieldPlaylist, playlist.Name),
		logging.Int("tracks", len(playlist.Tracks)),
	)
	return playlist, nil
}

// indexCollection maps playlist entry keys to tracks.
func indexCollection(doc *xmlquery.Node, byLocation bool) (map[string]library.Track, error) {
	nodes, err := xmlquery.QueryAll(doc, "/DJ_PLAYLISTS/COLLECTION/TRACK")
	if err != nil {
		return nil, unreadable("load playlist", "query collection", err)
	}
	tracks := make(map[string]library.Track, len(nodes))
	for _, n := range nodes {
		location := n.SelectAttr("Location")
		path, err := library.FileURIToPath(location)
		if err != nil {
			path = ""
		}
		track := library.Track{
			ID:     n.SelectAttr("TrackID"),
			Path:   path,
			Title:  n.SelectAttr("Name"),
			Artist: n.SelectAttr("Artist"),
		}
		key := track.ID
		if byLocation {
			key = location
		}
		tracks[key] = track
	}
	return tracks, nil
}

// folderPath joins the names of enclosing folder nodes below ROOT.
func folderPath(n *xmlquery.Node) string {
	var parts []string
	for p := n.Parent; p != nil && p.Data == "NODE"; p = p.Parent {
		if p.SelectAttr("Type") != nodeTypeFolder {
			break
		}
		if p.Parent != nil && p.Parent.Data == "PLAYLISTS" {
			break
		}
		parts = append(parts, p.SelectAttr("Name"))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

func unreadable(operation, message string, err error) error {
	return services.Wrap(services.ErrDatabaseUnreadable, "library", operation, message, err)
}
