package export_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cdjexport/internal/config"
	"cdjexport/internal/export"
	"cdjexport/internal/library"
	"cdjexport/internal/naming"
	"cdjexport/internal/romaji"
	"cdjexport/internal/services"
	"cdjexport/internal/testsupport"
)

type fakeSource struct {
	playlists map[string]*library.Playlist
}

func (f fakeSource) Playlist(_ context.Context, name string) (*library.Playlist, error) {
	pl, ok := f.playlists[name]
	if !ok {
		return nil, library.NotFound(name)
	}
	return pl, nil
}

func (f fakeSource) Playlists(context.Context) ([]library.PlaylistSummary, error) {
	var out []library.PlaylistSummary
	for _, pl := range f.playlists {
		out = append(out, library.PlaylistSummary{Name: pl.Name, TrackCount: len(pl.Tracks)})
	}
	return out, nil
}

type env struct {
	cfg     *config.Config
	srcDir  string
	dest    string
	service *export.Service
	source  fakeSource
}

func newEnv(t *testing.T, opts ...testsupport.ConfigOption) *env {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	e := &env{
		cfg:    cfg,
		srcDir: filepath.Join(base, "library"),
		dest:   filepath.Join(base, "usb"),
		source: fakeSource{playlists: map[string]*library.Playlist{}},
	}
	if err := os.MkdirAll(e.dest, 0o755); err != nil {
		t.Fatal(err)
	}
	e.service = export.NewService(cfg, e.source, romaji.NewConverter(nil), nil)
	return e
}

// addPlaylist writes source files with the given names and registers them
// as a playlist. A name prefixed with "!" is referenced but not created.
func (e *env) addPlaylist(t *testing.T, name string, files ...string) *library.Playlist {
	t.Helper()
	pl := &library.Playlist{ID: name, Name: name}
	for i, f := range files {
		missing := strings.HasPrefix(f, "!")
		f = strings.TrimPrefix(f, "!")
		path := filepath.Join(e.srcDir, f)
		if !missing {
			testsupport.WriteText(t, path, "audio:"+f)
		}
		pl.Tracks = append(pl.Tracks, library.Track{ID: f, Path: path, Title: f, Position: i + 1})
	}
	e.source.playlists[name] = pl
	return pl
}

func (e *env) music(parts ...string) string {
	return filepath.Join(append([]string{e.dest, "MUSIC"}, parts...)...)
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	return out
}

func TestExportCopiesIntoLayout(t *testing.T) {
	e := newEnv(t)
	e.addPlaylist(t, "Friday", "カップ.mp3", "タワー.wav")

	report, err := e.service.Export(context.Background(), export.Request{Playlist: "Friday", Destination: e.dest})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if report.Copied != 2 || report.Skipped != 0 || report.Failed != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	for _, dir := range []string{"PIONEER", "PIONEER/CONTENTS", "MUSIC"} {
		if info, err := os.Stat(filepath.Join(e.dest, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	got, err := os.ReadFile(e.music("001_kappu.mp3"))
	if err != nil {
		t.Fatalf("read copied file: %v", err)
	}
	if string(got) != "audio:カップ.mp3" {
		t.Fatalf("unexpected content %q", got)
	}
	if _, err := os.Stat(e.music("002_tawaa.wav")); err != nil {
		t.Fatalf("expected second file: %v", err)
	}
	if report.Files[0].Status != export.StatusCopied || report.Files[0].FileName != "001_kappu.mp3" {
		t.Fatalf("unexpected file result %+v", report.Files[0])
	}
}

func TestExportRerunSkipsExistingFiles(t *testing.T) {
	e := newEnv(t)
	e.addPlaylist(t, "Friday", "カップ.mp3", "タワー.mp3")
	req := export.Request{Playlist: "Friday", Destination: e.dest}

	if _, err := e.service.Export(context.Background(), req); err != nil {
		t.Fatalf("first export: %v", err)
	}
	if err := os.WriteFile(e.music("001_kappu.mp3"), []byte("edited on stick"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := e.service.Export(context.Background(), req)
	if err != nil {
		t.Fatalf("second export: %v", err)
	}
	if report.Copied != 0 || report.Skipped != 2 {
		t.Fatalf("expected all skipped, got %+v", report)
	}
	for _, f := range report.Files {
		if f.Reason != export.ReasonExists {
			t.Fatalf("unexpected skip reason %q", f.Reason)
		}
	}
	got, _ := os.ReadFile(e.music("001_kappu.mp3"))
	if string(got) != "edited on stick" {
		t.Fatalf("existing file was overwritten: %q", got)
	}
}

func TestExportRemovesStalePartialCopies(t *testing.T) {
	e := newEnv(t)
	e.addPlaylist(t, "Friday", "カップ.mp3")
	testsupport.WriteText(t, e.music("001_kappu.mp3.part"), "half")

	report, err := e.service.Export(context.Background(), export.Request{Playlist: "Friday", Destination: e.dest})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if report.Copied != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if _, err := os.Stat(e.music("001_kappu.mp3.part")); !os.IsNotExist(err) {
		t.Fatalf("partial copy left behind: %v", err)
	}
	if files := listFiles(t, e.music()); len(files) != 1 || files[0] != "001_kappu.mp3" {
		t.Fatalf("unexpected files %v", files)
	}
}

func TestExportForceOverwrites(t *testing.T) {
	e := newEnv(t)
	e.addPlaylist(t, "Friday", "カップ.mp3")
	testsupport.WriteText(t, e.music("001_kappu.mp3"), "stale")

	report, err := e.service.Export(context.Background(), export.Request{Playlist: "Friday", Destination: e.dest, Force: true})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if report.Copied != 1 {
		t.Fatalf("expected overwrite, got %+v", report)
	}
	got, _ := os.ReadFile(e.music("001_kappu.mp3"))
	if string(got) != "audio:カップ.mp3" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestExportUnknownPlaylistWritesNothing(t *testing.T) {
	e := newEnv(t)
	e.addPlaylist(t, "Friday", "カップ.mp3")

	report, err := e.service.Export(context.Background(), export.Request{Playlist: "Saturday", Destination: e.dest})
	if !errors.Is(err, services.ErrPlaylistNotFound) {
		t.Fatalf("expected playlist not found, got %v", err)
	}
	if !services.IsFatal(err) || report != nil {
		t.Fatalf("expected fatal error without report, got %v %+v", err, report)
	}
	if files := listFiles(t, e.dest); len(files) != 0 {
		t.Fatalf("expected empty destination, got %v", files)
	}
	if entries, _ := os.ReadDir(e.dest); len(entries) != 0 {
		t.Fatalf("expected no directories, got %d entries", len(entries))
	}
}

func TestExportUnwritableDestinationFailsBeforeCopy(t *testing.T) {
	e := newEnv(t)
	e.addPlaylist(t, "Friday", "カップ.mp3")

	missing := filepath.Join(e.dest, "not-mounted")
	_, err := e.service.Export(context.Background(), export.Request{Playlist: "Friday", Destination: missing})
	if !errors.Is(err, services.ErrDestinationUnwritable) {
		t.Fatalf("expected destination unwritable, got %v", err)
	}
	if _, statErr := os.Stat(missing); !os.IsNotExist(statErr) {
		t.Fatalf("destination root must not be created, got %v", statErr)
	}

	// A file where the music directory should be makes layout creation fail.
	testsupport.WriteText(t, filepath.Join(e.dest, "MUSIC"), "not a directory")
	_, err = e.service.Export(context.Background(), export.Request{Playlist: "Friday", Destination: e.dest})
	if !errors.Is(err, services.ErrDestinationUnwritable) {
		t.Fatalf("expected destination unwritable, got %v", err)
	}
	if files := listFiles(t, e.dest); len(files) != 1 {
		t.Fatalf("expected no copies, got %v", files)
	}
}

func TestExportCollectsPerFileFailures(t *testing.T) {
	e := newEnv(t)
	e.addPlaylist(t, "Friday", "カップ.mp3", "!gone.mp3", "notes.txt", "タワー.mp3")

	report, err := e.service.Export(context.Background(), export.Request{Playlist: "Friday", Destination: e.dest})
	if err != nil {
		t.Fatalf("per-file failures must not be fatal: %v", err)
	}
	if report.Copied != 2 || report.Failed != 1 || report.Skipped != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	failed := report.Files[1]
	if failed.Status != export.StatusFailed || failed.Reason != export.ReasonSourceMissing {
		t.Fatalf("unexpected failed entry %+v", failed)
	}
	if !errors.Is(failed.Err, services.ErrFileCopyFailed) || services.IsFatal(failed.Err) {
		t.Fatalf("expected non-fatal copy failure, got %v", failed.Err)
	}
	if report.Files[2].Reason != export.ReasonUnsupported {
		t.Fatalf("expected unsupported skip, got %+v", report.Files[2])
	}
	if len(report.Errors()) != 1 {
		t.Fatalf("expected one error, got %v", report.Errors())
	}
	if _, err := os.Stat(e.music("004_tawaa.mp3")); err != nil {
		t.Fatalf("expected later track copied: %v", err)
	}
}

func TestExportDryRunWritesNothing(t *testing.T) {
	e := newEnv(t)
	e.addPlaylist(t, "Friday", "カップ.mp3")

	report, err := e.service.Export(context.Background(), export.Request{Playlist: "Friday", Destination: e.dest, DryRun: true})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if report.Planned != 1 || report.Files[0].Status != export.StatusPlanned || !report.DryRun {
		t.Fatalf("unexpected report %+v", report)
	}
	if entries, _ := os.ReadDir(e.dest); len(entries) != 0 {
		t.Fatalf("dry run created %d entries", len(entries))
	}
}

func TestExportPlaylistFolders(t *testing.T) {
	e := newEnv(t, testsupport.WithDevice(func(d *config.Device) { d.PlaylistFolders = true }))
	e.addPlaylist(t, "ファイル Set", "カップ.mp3")

	if _, err := e.service.Export(context.Background(), export.Request{Playlist: "ファイル Set", Destination: e.dest}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if _, err := os.Stat(e.music("fairu_Set", "001_kappu.mp3")); err != nil {
		t.Fatalf("expected file in playlist folder: %v", err)
	}
}

func TestExportInterrupted(t *testing.T) {
	e := newEnv(t)
	e.addPlaylist(t, "Friday", "カップ.mp3", "タワー.mp3")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := e.service.Export(ctx, export.Request{Playlist: "Friday", Destination: e.dest})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if report == nil || !report.Interrupted || len(report.Files) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestExportBusyLock(t *testing.T) {
	e := newEnv(t)
	e.addPlaylist(t, "Friday", "カップ.mp3")

	lock, err := export.AcquireLock(e.cfg.LockPath())
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer lock.Release()

	_, err = e.service.Export(context.Background(), export.Request{Playlist: "Friday", Destination: e.dest})
	if !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected busy, got %v", err)
	}
}

type countingProgress struct {
	bytes     int
	described []string
	finished  bool
}

func (c *countingProgress) Write(p []byte) (int, error) { c.bytes += len(p); return len(p), nil }

func (c *countingProgress) Describe(d string) { c.described = append(c.described, d) }

func (c *countingProgress) Finish() error { c.finished = true; return nil }

func TestExportReportsProgress(t *testing.T) {
	e := newEnv(t)
	e.addPlaylist(t, "Friday", "カップ.mp3", "タワー.mp3")

	progress := &countingProgress{}
	var total int64
	e.service.SetProgress(func(n int64) export.Progress {
		total = n
		return progress
	})
	report, err := e.service.Export(context.Background(), export.Request{Playlist: "Friday", Destination: e.dest})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if int64(progress.bytes) != report.Bytes || total != report.Bytes || !progress.finished {
		t.Fatalf("progress mismatch: wrote %d, total %d, report %d", progress.bytes, total, report.Bytes)
	}
	if len(progress.described) != 2 {
		t.Fatalf("expected a description per copy, got %v", progress.described)
	}
}

func TestPlannerNamesCollisions(t *testing.T) {
	rules := naming.DefaultRules()
	rules.PositionPrefix = false
	planner := export.NewPlanner(naming.NewNamer(romaji.NewConverter(nil), rules, nil), config.Default().Device)

	plan, err := planner.Plan("/media/usb", &library.Playlist{Name: "x", Tracks: []library.Track{
		{Path: "/a/あい.mp3"}, {Path: "/b/アイ.mp3"},
	}})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	want := []string{"/media/usb/MUSIC/ai.mp3", "/media/usb/MUSIC/ai-2.mp3"}
	for i, entry := range plan.Entries {
		if entry.Destination != filepath.FromSlash(want[i]) {
			t.Errorf("entry %d destination %q, want %q", i, entry.Destination, want[i])
		}
	}
	if _, err := planner.Plan("  ", &library.Playlist{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for empty root, got %v", err)
	}
}

func TestLayout(t *testing.T) {
	l := export.NewLayout("/media/usb/", "/Contents/Music/", "")
	if l.Music != filepath.FromSlash("/media/usb/Contents/Music") || l.Target != l.Music {
		t.Fatalf("unexpected layout %+v", l)
	}
	if len(l.Dirs()) != 3 {
		t.Fatalf("unexpected dirs %v", l.Dirs())
	}
	l = export.NewLayout("/media/usb", "", "set")
	if l.Target != filepath.FromSlash("/media/usb/MUSIC/set") || len(l.Dirs()) != 4 {
		t.Fatalf("unexpected layout %+v", l)
	}
}
