package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	defaultStateDir            = "~/.local/share/cdjexport"
	defaultLogDir              = "~/.local/share/cdjexport/logs"
	defaultLibraryFormat       = FormatAuto
	defaultMusicDir            = "MUSIC"
	defaultMaxNameLength       = 64
	defaultAllowedPunctuation  = "-_"
	defaultSeparator           = "_"
	defaultPositionWidth       = 3
	defaultFallbackName        = "track"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	defaultWatchSettleSeconds  = 2
	defaultWatchMountTimeout   = 30
	minMaxNameLength           = 16
	maxMaxNameLength           = 255
	maxPositionWidth           = 6
	databaseEnvVar             = "CDJEXPORT_DATABASE"
	rekordboxDatabaseFileName  = "master.db"
	rekordboxDarwinLibraryDir  = "~/Library/Pioneer/rekordbox"
	rekordboxWindowsLibraryDir = "Pioneer/rekordbox"
)

// Library reader formats.
const (
	FormatAuto   = "auto"
	FormatSQLite = "sqlite"
	FormatXML    = "xml"
)

// Extensions the CDJ-350 can play from USB storage.
var defaultSupportedExtensions = []string{".mp3", ".m4a", ".aac", ".wav", ".aif", ".aiff"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	exts := make([]string, len(defaultSupportedExtensions))
	copy(exts, defaultSupportedExtensions)
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Library: Library{
			DatabasePath: defaultDatabasePath(),
			Format:       defaultLibraryFormat,
		},
		Device: Device{
			MusicDir:            defaultMusicDir,
			MaxNameLength:       defaultMaxNameLength,
			AllowedPunctuation:  defaultAllowedPunctuation,
			Separator:           defaultSeparator,
			PositionPrefix:      true,
			PositionWidth:       defaultPositionWidth,
			FallbackName:        defaultFallbackName,
			SupportedExtensions: exts,
		},
		Export: Export{
			PreserveTimes:  true,
			CheckFreeSpace: true,
		},
		Watch: Watch{
			SettleSeconds:       defaultWatchSettleSeconds,
			MountTimeoutSeconds: defaultWatchMountTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

// defaultDatabasePath points at rekordbox's own library location on the
// platforms rekordbox ships for; elsewhere the path must be configured.
func defaultDatabasePath() string {
	switch runtime.GOOS {
	case "darwin":
		return rekordboxDarwinLibraryDir + "/" + rekordboxDatabaseFileName
	case "windows":
		if base := strings.TrimSpace(os.Getenv("APPDATA")); base != "" {
			return filepath.Join(base, rekordboxWindowsLibraryDir, rekordboxDatabaseFileName)
		}
	}
	return ""
}
