package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// punctuationSafeOnFAT lists the ASCII punctuation the CDJ firmware and
// FAT32 both accept inside a file name.
const punctuationSafeOnFAT = "-_.()!#&'@^~"

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateDevice(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLibrary() error {
	switch c.Library.Format {
	case FormatAuto, FormatSQLite, FormatXML:
	default:
		return fmt.Errorf("library.format must be one of auto, sqlite, xml (got %q)", c.Library.Format)
	}
	return nil
}

func (c *Config) validateDevice() error {
	if strings.ContainsAny(c.Device.MusicDir, `:*?"<>|`) {
		return fmt.Errorf("device.music_dir contains characters the device cannot store: %q", c.Device.MusicDir)
	}
	for _, part := range strings.FieldsFunc(c.Device.MusicDir, isPathSeparator) {
		if strings.TrimSpace(part) == ".." {
			return fmt.Errorf("device.music_dir must stay inside the device root: %q", c.Device.MusicDir)
		}
	}
	if c.Device.MaxNameLength < minMaxNameLength || c.Device.MaxNameLength > maxMaxNameLength {
		return fmt.Errorf("device.max_name_length must be between %d and %d", minMaxNameLength, maxMaxNameLength)
	}
	if c.Device.PositionWidth > maxPositionWidth {
		return fmt.Errorf("device.position_width must be at most %d", maxPositionWidth)
	}
	for _, r := range c.Device.AllowedPunctuation {
		if !strings.ContainsRune(punctuationSafeOnFAT, r) {
			return fmt.Errorf("device.allowed_punctuation contains unsupported character %q (allowed: %s)", r, punctuationSafeOnFAT)
		}
	}
	if utf8.RuneCountInString(c.Device.Separator) != 1 {
		return errors.New("device.separator must be a single character")
	}
	if !strings.Contains(c.Device.AllowedPunctuation, c.Device.Separator) {
		return fmt.Errorf("device.separator %q must be listed in device.allowed_punctuation", c.Device.Separator)
	}
	if c.Device.Separator == "." {
		return errors.New("device.separator cannot be a dot")
	}
	for _, r := range c.Device.FallbackName {
		if !isASCIIAlnum(r) && !strings.ContainsRune(c.Device.AllowedPunctuation, r) {
			return fmt.Errorf("device.fallback_name contains disallowed character %q", r)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
}

func isPathSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
