package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeLibrary(); err != nil {
		return err
	}
	c.normalizeDevice()
	c.normalizeWatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLibrary() error {
	if value, ok := os.LookupEnv(databaseEnvVar); ok && strings.TrimSpace(value) != "" {
		c.Library.DatabasePath = strings.TrimSpace(value)
	}
	c.Library.DatabasePath = strings.TrimSpace(c.Library.DatabasePath)
	if c.Library.DatabasePath != "" {
		expanded, err := expandPath(c.Library.DatabasePath)
		if err != nil {
			return fmt.Errorf("library.database_path: %w", err)
		}
		c.Library.DatabasePath = expanded
	}
	c.Library.Format = strings.ToLower(strings.TrimSpace(c.Library.Format))
	if c.Library.Format == "" {
		c.Library.Format = defaultLibraryFormat
	}
	return nil
}

func (c *Config) normalizeDevice() {
	c.Device.MusicDir = strings.Trim(strings.TrimSpace(c.Device.MusicDir), "/\\")
	if c.Device.MusicDir == "" {
		c.Device.MusicDir = defaultMusicDir
	}
	if c.Device.MaxNameLength == 0 {
		c.Device.MaxNameLength = defaultMaxNameLength
	}
	if c.Device.PositionWidth <= 0 {
		c.Device.PositionWidth = defaultPositionWidth
	}
	c.Device.FallbackName = strings.TrimSpace(c.Device.FallbackName)
	if c.Device.FallbackName == "" {
		c.Device.FallbackName = defaultFallbackName
	}
	if c.Device.Separator == "" {
		c.Device.Separator = defaultSeparator
	}

	// Deduplicate punctuation while keeping the configured order.
	seen := make(map[rune]struct{}, len(c.Device.AllowedPunctuation))
	var b strings.Builder
	for _, r := range c.Device.AllowedPunctuation {
		if r == ' ' {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		b.WriteRune(r)
	}
	c.Device.AllowedPunctuation = b.String()

	if len(c.Device.SupportedExtensions) == 0 {
		c.Device.SupportedExtensions = append([]string(nil), defaultSupportedExtensions...)
		return
	}
	exts := make([]string, 0, len(c.Device.SupportedExtensions))
	seenExt := make(map[string]struct{}, len(c.Device.SupportedExtensions))
	for _, ext := range c.Device.SupportedExtensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seenExt[normalized]; exists {
			continue
		}
		seenExt[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	c.Device.SupportedExtensions = exts
}

func (c *Config) normalizeWatch() {
	if c.Watch.SettleSeconds < 0 {
		c.Watch.SettleSeconds = 0
	}
	if c.Watch.MountTimeoutSeconds <= 0 {
		c.Watch.MountTimeoutSeconds = defaultWatchMountTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
