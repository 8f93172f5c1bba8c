package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPlaylistNotFound      = errors.New("playlist not found")
	ErrDatabaseUnreadable    = errors.New("database unreadable")
	ErrDestinationUnwritable = errors.New("destination unwritable")
	ErrFileCopyFailed        = errors.New("file copy failed")
	ErrFilenameConstraint    = errors.New("filename constraint violation")
	ErrConfiguration         = errors.New("configuration error")
	ErrBusy                  = errors.New("export already running")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		if err != nil {
			return fmt.Errorf("%s: %w", detail, err)
		}
		return errors.New(detail)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must abort the whole run. Per-file copy
// failures and filename fallbacks are recorded in the report instead.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrFileCopyFailed), errors.Is(err, ErrFilenameConstraint):
		return false
	default:
		return true
	}
}

// Hint returns a short operator-facing next step for a classified error.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrPlaylistNotFound):
		return "run `cdjexport playlists` to list the available playlist names"
	case errors.Is(err, ErrDatabaseUnreadable):
		return "close rekordbox, or point library.database_path at a decrypted master.db copy or an XML export"
	case errors.Is(err, ErrDestinationUnwritable):
		return "check that the USB volume is mounted read-write and has free space"
	case errors.Is(err, ErrBusy):
		return "wait for the other export to finish"
	case errors.Is(err, ErrConfiguration):
		return "fix the configuration file (see `cdjexport config validate`)"
	default:
		return ""
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
