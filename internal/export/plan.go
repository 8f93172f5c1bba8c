package export

import (
	"path/filepath"
	"strings"

	"cdjexport/internal/config"
	"cdjexport/internal/library"
	"cdjexport/internal/naming"
	"cdjexport/internal/services"
)

// Entry is one planned copy.
type Entry struct {
	Position    int
	Track       library.Track
	FileName    string
	Destination string
	Fallback    bool
}

// Plan is the full set of copies for one playlist.
type Plan struct {
	Playlist string
	Layout   Layout
	Entries  []Entry
}

// Planner turns a playlist into a Plan. It performs no I/O.
type Planner struct {
	namer  *naming.Namer
	device config.Device
}

// NewPlanner builds a Planner for a device section.
func NewPlanner(namer *naming.Namer, device config.Device) *Planner {
	return &Planner{namer: namer, device: device}
}

// Plan assigns file names to the playlist's tracks under root.
func (p *Planner) Plan(root string, playlist *library.Playlist) (*Plan, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, services.Wrap(services.ErrConfiguration, "export", "plan", "destination root is empty", nil)
	}
	if playlist == nil {
		return nil, services.Wrap(services.ErrPlaylistNotFound, "export", "plan", "no playlist", nil)
	}

	folder := ""
	if p.device.PlaylistFolders {
		folder = p.namer.FolderName(playlist.Name)
	}
	layout := NewLayout(root, p.device.MusicDir, folder)

	assignments := p.namer.Assign(playlist.Tracks)
	plan := &Plan{
		Playlist: playlist.Name,
		Layout:   layout,
		Entries:  make([]Entry, 0, len(assignments)),
	}
	for i, a := range assignments {
		plan.Entries = append(plan.Entries, Entry{
			Position:    i + 1,
			Track:       a.Track,
			FileName:    a.FileName,
			Destination: filepath.Join(layout.Target, a.FileName),
			Fallback:    a.Fallback,
		})
	}
	return plan, nil
}
