package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cdjexport/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("CDJEXPORT_DATABASE", "")
	chdir(t, tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "cdjexport")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.LogDir != filepath.Join(wantState, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Device.MusicDir != "MUSIC" {
		t.Fatalf("unexpected music dir: %q", cfg.Device.MusicDir)
	}
	if cfg.Device.MaxNameLength != 64 {
		t.Fatalf("unexpected max name length: %d", cfg.Device.MaxNameLength)
	}
	if !cfg.Device.PositionPrefix || cfg.Device.PositionWidth != 3 {
		t.Fatalf("expected 3-digit position prefix by default, got %v/%d", cfg.Device.PositionPrefix, cfg.Device.PositionWidth)
	}
	if cfg.Export.OverwriteExisting {
		t.Fatal("expected overwrite disabled by default")
	}
	if cfg.Library.Format != config.FormatAuto {
		t.Fatalf("unexpected library format: %q", cfg.Library.Format)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if cfg.LockPath() != filepath.Join(wantState, "export.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cdjexport.toml")
	t.Setenv("CDJEXPORT_DATABASE", "")

	type payload struct {
		Library struct {
			DatabasePath string `toml:"database_path"`
			Format       string `toml:"format"`
		} `toml:"library"`
		Device struct {
			MusicDir            string   `toml:"music_dir"`
			MaxNameLength       int      `toml:"max_name_length"`
			SupportedExtensions []string `toml:"supported_extensions"`
		} `toml:"device"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Library.DatabasePath = filepath.Join(tempDir, "rekordbox.xml")
	custom.Library.Format = " XML "
	custom.Device.MusicDir = "/CDJ/"
	custom.Device.MaxNameLength = 40
	custom.Device.SupportedExtensions = []string{"MP3", ".wav", "mp3", ""}
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "DEBUG"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Library.Format != config.FormatXML {
		t.Fatalf("unexpected format: %q", cfg.Library.Format)
	}
	if cfg.Library.DatabasePath != custom.Library.DatabasePath {
		t.Fatalf("unexpected database path: %q", cfg.Library.DatabasePath)
	}
	if cfg.Device.MusicDir != "CDJ" {
		t.Fatalf("expected trimmed music dir, got %q", cfg.Device.MusicDir)
	}
	if cfg.Device.MaxNameLength != 40 {
		t.Fatalf("unexpected max length: %d", cfg.Device.MaxNameLength)
	}
	if got := strings.Join(cfg.Device.SupportedExtensions, ","); got != ".mp3,.wav" {
		t.Fatalf("unexpected extensions: %q", got)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadDatabaseFromEnv(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	dbPath := filepath.Join(tempDir, "master.db")
	t.Setenv("CDJEXPORT_DATABASE", dbPath)

	cfg, _, _, err := config.Load(filepath.Join(tempDir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Library.DatabasePath != dbPath {
		t.Fatalf("expected env database path, got %q", cfg.Library.DatabasePath)
	}
}

func TestValidateRejectsBadDeviceRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"short max length", func(c *config.Config) { c.Device.MaxNameLength = 8 }, "max_name_length"},
		{"bad punctuation", func(c *config.Config) { c.Device.AllowedPunctuation = "-_/" }, "allowed_punctuation"},
		{"separator not allowed", func(c *config.Config) { c.Device.Separator = "~" }, "separator"},
		{"long separator", func(c *config.Config) { c.Device.Separator = "__" }, "single character"},
		{"fallback", func(c *config.Config) { c.Device.FallbackName = "曲" }, "fallback_name"},
		{"format", func(c *config.Config) { c.Library.Format = "csv" }, "library.format"},
		{"level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"music dir", func(c *config.Config) { c.Device.MusicDir = "MU:SIC" }, "music_dir"},
		{"music dir parent", func(c *config.Config) { c.Device.MusicDir = "../escape" }, "inside the device root"},
		{"music dir nested parent", func(c *config.Config) { c.Device.MusicDir = `MUSIC\..\..\etc` }, "inside the device root"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestCreateSampleLoads(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("CDJEXPORT_DATABASE", "")
	path := filepath.Join(tempDir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Device.Separator != "_" {
		t.Fatalf("unexpected separator: %q", cfg.Device.Separator)
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})
}
