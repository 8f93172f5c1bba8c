package rekordboxdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cdjexport/internal/services"
)

const (
	sqliteBusyCode          = 5
	sqliteNotADBCode        = 26
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func sqliteCode(err error) int {
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		return coder.Code() & 0xff
	}
	return 0
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	if sqliteCode(err) == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func isNotADatabase(err error) bool {
	if err == nil {
		return false
	}
	if sqliteCode(err) == sqliteNotADBCode {
		return true
	}
	return strings.Contains(err.Error(), "file is not a database")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// readOnlyDSN builds a URI filename that opens path without write access.
func readOnlyDSN(path string) string {
	u := url.URL{Scheme: "file", Path: path}
	q := url.Values{}
	q.Set("mode", "ro")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "query_only(1)")
	u.RawQuery = q.Encode()
	return u.String()
}

// openDB opens the library and checks that it is a readable rekordbox
// database before any query runs.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, unreadable("open", fmt.Sprintf("cannot stat %s", path), err)
	}
	if info.IsDir() {
		return nil, unreadable("open", fmt.Sprintf("%s is a directory", path), nil)
	}

	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, unreadable("open", "open sqlite db", err)
	}
	db.SetMaxOpenConns(1)

	var tables int
	probe := func() error {
		return db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('djmdPlaylist', 'djmdSongPlaylist', 'djmdContent')`,
		).Scan(&tables)
	}
	if err := retryOnBusy(ctx, probe); err != nil {
		_ = db.Close()
		if isNotADatabase(err) {
			return nil, unreadable("open", fmt.Sprintf("%s is encrypted or not a sqlite database", path), err)
		}
		return nil, unreadable("open", "probe schema", err)
	}
	if tables < 3 {
		_ = db.Close()
		return nil, unreadable("open", fmt.Sprintf("%s does not contain a rekordbox library", path), nil)
	}
	return db, nil
}

func unreadable(operation, message string, err error) error {
	return services.Wrap(services.ErrDatabaseUnreadable, "library", operation, message, err)
}
