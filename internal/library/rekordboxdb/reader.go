package rekordboxdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"cdjexport/internal/config"
	"cdjexport/internal/library"
	"cdjexport/internal/logging"
)

func init() {
	library.Register(config.FormatSQLite, func(path string, logger *slog.Logger) library.Source {
		return New(path, logger)
	})
}

// rekordbox marks playlists with Attribute 0, folders with 1 and smart
// playlists with 4.
const (
	attributePlaylist = 0
	attributeFolder   = 1
	rootParentID      = "root"
)

// Reader reads playlists from a master.db file.
type Reader struct {
	path   string
	logger *slog.Logger
}

// New returns a Reader for the database at path. Nothing is opened until a
// method is called.
func New(path string, logger *slog.Logger) *Reader {
	return &Reader{path: path, logger: logging.NewComponentLogger(logger, "rekordboxdb")}
}

type node struct {
	id        string
	parentID  string
	name      string
	seq       int
	attribute int
}

// Playlists lists every regular playlist with its folder path and track count.
func (r *Reader) Playlists(ctx context.Context) ([]library.PlaylistSummary, error) {
	ctx = ensureContext(ctx)
	db, err := openDB(ctx, r.path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	nodes, err := loadNodes(ctx, db)
	if err != nil {
		return nil, err
	}
	counts, err := loadCounts(ctx, db)
	if err != nil {
		return nil, err
	}

	byID := indexNodes(nodes)
	var out []library.PlaylistSummary
	for _, n := range nodes {
		if n.attribute != attributePlaylist {
			continue
		}
		out = append(out, library.PlaylistSummary{
			ID:         n.id,
			Name:       n.name,
			Folder:     folderPath(byID, n),
			TrackCount: counts[n.id],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Path()) < strings.ToLower(out[j].Path())
	})
	return out, nil
}

// Playlist loads a playlist by name, or by Folder/Name when a folder is given.
func (r *Reader) Playlist(ctx context.Context, lookup string) (*library.Playlist, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(lookup) == "" {
		return nil, library.NotFound(lookup)
	}

	db, err := openDB(ctx, r.path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	nodes, err := loadNodes(ctx, db)
	if err != nil {
		return nil, err
	}
	byID := indexNodes(nodes)

	var candidates []library.PlaylistSummary
	for _, n := range nodes {
		if n.attribute != attributePlaylist {
			continue
		}
		candidates = append(candidates, library.PlaylistSummary{ID: n.id, Name: n.name, Folder: folderPath(byID, n)})
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
	playlist := library.Playlist{ID: chosen.ID, Name: chosen.Name, Folder: chosen.Folder}
	tracks, err := loadTracks(ctx, db, playlist.ID)
	if err != nil {
		return nil, err
	}
	playlist.Tracks = tracks
	r.logger.Debug("playlist loaded",
		logging.String(logging.FieldPlaylist, playlist.Name),
		logging.Int("tracks", len(tracks)),
	)
	return &playlist, nil
}

func loadNodes(ctx context.Context, db *sql.DB) ([]node, error) {
	var nodes []node
	err := retryOnBusy(ctx, func() error {
		nodes = nodes[:0]
		rows, err := db.QueryContext(ctx, `
			SELECT CAST(ID AS TEXT), COALESCE(CAST(ParentID AS TEXT), ''), COALESCE(Name, ''),
			       COALESCE(Seq, 0), COALESCE(Attribute, 0)
			FROM djmdPlaylist
			WHERE COALESCE(rb_local_deleted, 0) = 0
			ORDER BY ParentID, Seq, ID`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var n node
			if err := rows.Scan(&n.id, &n.parentID, &n.name, &n.seq, &n.attribute); err != nil {
				return err
			}
			nodes = append(nodes, n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, unreadable("list playlists", "query djmdPlaylist", err)
	}
	return nodes, nil
}

func loadCounts(ctx context.Context, db *sql.DB) (map[string]int, error) {
	counts := make(map[string]int)
	err := retryOnBusy(ctx, func() error {
		clear(counts)
		rows, err := db.QueryContext(ctx, `
			SELECT CAST(PlaylistID AS TEXT), COUNT(*)
			FROM djmdSongPlaylist
			WHERE COALESCE(rb_local_deleted, 0) = 0
			GROUP BY PlaylistID`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id string
			var n int
			if err := rows.Scan(&id, &n); err != nil {
				return err
			}
			counts[id] = n
		}
		return rows.Err()
	})
	if err != nil {
		return nil, unreadable("list playlists", "count playlist entries", err)
	}
	return counts, nil
}

func loadTracks(ctx context.Context, db *sql.DB, playlistID string) ([]library.Track, error) {
	var tracks []library.Track
	err := retryOnBusy(ctx, func() error {
		tracks = tracks[:0]
		rows, err := db.QueryContext(ctx, `
			SELECT CAST(c.ID AS TEXT), COALESCE(c.FolderPath, ''), COALESCE(c.FileNameL, ''),
			       COALESCE(c.Title, ''), COALESCE(a.Name, '')
			FROM djmdSongPlaylist sp
			JOIN djmdContent c ON c.ID = sp.ContentID
			LEFT JOIN djmdArtist a ON a.ID = c.ArtistID
			WHERE sp.PlaylistID = ?
			  AND COALESCE(sp.rb_local_deleted, 0) = 0
			  AND COALESCE(c.rb_local_deleted, 0) = 0
			ORDER BY sp.TrackNo, sp.ID`, playlistID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var t library.Track
			var folderPath, fileName string
			if err := rows.Scan(&t.ID, &folderPath, &fileName, &t.Title, &t.Artist); err != nil {
				return err
			}
			t.Path = contentPath(folderPath, fileName)
			t.Position = len(tracks) + 1
			tracks = append(tracks, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, unreadable("load playlist", fmt.Sprintf("query tracks of playlist %s", playlistID), err)
	}
	return tracks, nil
}

// contentPath returns the track's file path. FolderPath normally holds the
// full path already; older rows store only the directory.
func contentPath(folderPath, fileName string) string {
	if fileName == "" || strings.HasSuffix(folderPath, fileName) {
		return folderPath
	}
	if folderPath == "" {
		return fileName
	}
	sep := "/"
	if strings.Contains(folderPath, `\`) && !strings.Contains(folderPath, "/") {
		sep = `\`
	}
	return strings.TrimRight(folderPath, `/\`) + sep + fileName
}

func indexNodes(nodes []node) map[string]node {
	byID := make(map[string]node, len(nodes))
	for _, n := range nodes {
		byID[n.id] = n
	}
	return byID
}

// folderPath walks ParentID links up to the root and joins folder names.
func folderPath(byID map[string]node, n node) string {
	var parts []string
	seen := map[string]bool{n.id: true}
	parent := n.parentID
	for parent != "" && parent != rootParentID && !seen[parent] {
		p, ok := byID[parent]
		if !ok || p.attribute != attributeFolder {
			break
		}
		seen[parent] = true
		parts = append(parts, p.name)
		parent = p.parentID
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}
