package testsupport

import (
	"database/sql"
	"fmt"
	"html"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

// FixtureTrack is a track in a generated rekordbox library.
type FixtureTrack struct {
	Path   string
	Title  string
	Artist string
}

// FixturePlaylist is a playlist in a generated rekordbox library. Folder is a
// slash separated path of enclosing folders.
type FixturePlaylist struct {
	Name    string
	Folder  string
	Tracks  []FixtureTrack
	Deleted bool
}

const rekordboxSchema = `
CREATE TABLE djmdArtist (ID VARCHAR(255) PRIMARY KEY, Name VARCHAR(255), rb_local_deleted INTEGER DEFAULT 0);
CREATE TABLE djmdContent (
	ID VARCHAR(255) PRIMARY KEY,
	FolderPath VARCHAR(255),
	FileNameL VARCHAR(255),
	Title VARCHAR(255),
	ArtistID VARCHAR(255),
	rb_local_deleted INTEGER DEFAULT 0
);
CREATE TABLE djmdPlaylist (
	ID VARCHAR(255) PRIMARY KEY,
	Seq INTEGER,
	Name VARCHAR(255),
	Attribute INTEGER,
	ParentID VARCHAR(255),
	rb_local_deleted INTEGER DEFAULT 0
);
CREATE TABLE djmdSongPlaylist (
	ID VARCHAR(255) PRIMARY KEY,
	PlaylistID VARCHAR(255),
	ContentID VARCHAR(255),
	TrackNo INTEGER,
	rb_local_deleted INTEGER DEFAULT 0
);
`

// fixtureLibrary assigns stable IDs to folders, playlists, tracks and
// artists so the SQLite and XML writers describe the same library.
type fixtureLibrary struct {
	folders   []fixtureFolder
	folderIDs map[string]string
	playlists []fixtureEntry
	tracks    []FixtureTrack
	trackIDs  map[string]string
	artists   map[string]string
	nextID    int
}

type fixtureFolder struct {
	id, parentID, name, path string
	seq                      int
}

type fixtureEntry struct {
	id, parentID string
	seq          int
	playlist     FixturePlaylist
	trackIDs     []string
}

func buildFixture(playlists []FixturePlaylist) *fixtureLibrary {
	lib := &fixtureLibrary{
		folderIDs: map[string]string{},
		trackIDs:  map[string]string{},
		artists:   map[string]string{},
	}
	seqs := map[string]int{}
	next := func() string {
		lib.nextID++
		return fmt.Sprintf("%d", lib.nextID)
	}
	for _, pl := range playlists {
		parent := "root"
		if pl.Folder != "" {
			var path string
			for _, part := range strings.Split(pl.Folder, "/") {
				if path == "" {
					path = part
				} else {
					path += "/" + part
				}
				id, ok := lib.folderIDs[path]
				if !ok {
					id = next()
					seqs[parent]++
					lib.folderIDs[path] = id
					lib.folders = append(lib.folders, fixtureFolder{id: id, parentID: parent, name: part, path: path, seq: seqs[parent]})
				}
				parent = id
			}
		}
		seqs[parent]++
		entry := fixtureEntry{id: next(), parentID: parent, seq: seqs[parent], playlist: pl}
		for _, tr := range pl.Tracks {
			id, ok := lib.trackIDs[tr.Path]
			if !ok {
				id = next()
				lib.trackIDs[tr.Path] = id
				lib.tracks = append(lib.tracks, tr)
			}
			if tr.Artist != "" {
				if _, ok := lib.artists[tr.Artist]; !ok {
					lib.artists[tr.Artist] = next()
				}
			}
			entry.trackIDs = append(entry.trackIDs, id)
		}
		lib.playlists = append(lib.playlists, entry)
	}
	return lib
}

// WriteRekordboxDB creates a master.db shaped like rekordbox 6's schema at
// path and returns path.
func WriteRekordboxDB(t testing.TB, path string, playlists ...FixturePlaylist) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(rekordboxSchema); err != nil {
		t.Fatalf("create fixture schema: %v", err)
	}

	lib := buildFixture(playlists)
	exec := func(query string, args ...any) {
		t.Helper()
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("fixture insert: %v", err)
		}
	}
	for name, id := range lib.artists {
		exec(`INSERT INTO djmdArtist (ID, Name) VALUES (?, ?)`, id, name)
	}
	for _, tr := range lib.tracks {
		exec(`INSERT INTO djmdContent (ID, FolderPath, FileNameL, Title, ArtistID) VALUES (?, ?, ?, ?, ?)`,
			lib.trackIDs[tr.Path], tr.Path, baseName(tr.Path), tr.Title, nullable(lib.artists[tr.Artist]))
	}
	for _, f := range lib.folders {
		exec(`INSERT INTO djmdPlaylist (ID, Seq, Name, Attribute, ParentID) VALUES (?, ?, ?, 1, ?)`,
			f.id, f.seq, f.name, f.parentID)
	}
	for _, e := range lib.playlists {
		deleted := 0
		if e.playlist.Deleted {
			deleted = 1
		}
		exec(`INSERT INTO djmdPlaylist (ID, Seq, Name, Attribute, ParentID, rb_local_deleted) VALUES (?, ?, ?, 0, ?, ?)`,
			e.id, e.seq, e.playlist.Name, e.parentID, deleted)
		for i, trackID := range e.trackIDs {
			exec(`INSERT INTO djmdSongPlaylist (ID, PlaylistID, ContentID, TrackNo) VALUES (?, ?, ?, ?)`,
				fmt.Sprintf("%s-%d", e.id, i+1), e.id, trackID, i+1)
		}
	}
	return path
}

// WriteRekordboxXML writes a rekordbox collection export describing the
// same library as WriteRekordboxDB and returns path. Deleted playlists are
// omitted because exports never contain them.
func WriteRekordboxXML(t testing.TB, path string, playlists ...FixturePlaylist) string {
	t.Helper()

	lib := buildFixture(playlists)
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<DJ_PLAYLISTS Version=\"1.0.0\">\n")
	b.WriteString("  <PRODUCT Name=\"rekordbox\" Version=\"6.8.5\" Company=\"AlphaTheta\"/>\n")
	fmt.Fprintf(&b, "  <COLLECTION Entries=\"%d\">\n", len(lib.tracks))
	for _, tr := range lib.tracks {
		fmt.Fprintf(&b, "    <TRACK TrackID=\"%s\" Name=\"%s\" Artist=\"%s\" Location=\"%s\"/>\n",
			lib.trackIDs[tr.Path], html.EscapeString(tr.Title), html.EscapeString(tr.Artist), html.EscapeString(fileLocation(tr.Path)))
	}
	b.WriteString("  </COLLECTION>\n  <PLAYLISTS>\n")
	writeXMLNode(&b, lib, "root", "ROOT", 2)
	b.WriteString("  </PLAYLISTS>\n</DJ_PLAYLISTS>\n")

	WriteText(t, path, b.String())
	return path
}

func writeXMLNode(b *strings.Builder, lib *fixtureLibrary, id, name string, depth int) {
	indent := strings.Repeat("  ", depth)
	var children int
	for _, f := range lib.folders {
		if f.parentID == id {
			children++
		}
	}
	for _, e := range lib.playlists {
		if e.parentID == id && !e.playlist.Deleted {
			children++
		}
	}
	fmt.Fprintf(b, "%s<NODE Type=\"0\" Name=\"%s\" Count=\"%d\">\n", indent, html.EscapeString(name), children)
	for _, f := range lib.folders {
		if f.parentID == id {
			writeXMLNode(b, lib, f.id, f.name, depth+1)
		}
	}
	for _, e := range lib.playlists {
		if e.parentID != id || e.playlist.Deleted {
			continue
		}
		fmt.Fprintf(b, "%s  <NODE Name=\"%s\" Type=\"1\" KeyType=\"0\" Entries=\"%d\">\n",
			indent, html.EscapeString(e.playlist.Name), len(e.trackIDs))
		for _, trackID := range e.trackIDs {
			fmt.Fprintf(b, "%s    <TRACK Key=\"%s\"/>\n", indent, trackID)
		}
		fmt.Fprintf(b, "%s  </NODE>\n", indent)
	}
	fmt.Fprintf(b, "%s</NODE>\n", indent)
}

// fileLocation renders path the way rekordbox writes Location attributes.
func fileLocation(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Host: "localhost", Path: p}).String()
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
