package rekordboxdb

import (
	"context"
	"errors"
	"testing"
)

func TestRetryOnBusyRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := retryOnBusy(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success after 3 calls, got err=%v calls=%d", err, calls)
	}
}

func TestRetryOnBusyStopsOnOtherErrors(t *testing.T) {
	calls := 0
	want := errors.New("no such table")
	err := retryOnBusy(context.Background(), func() error {
		calls++
		return want
	})
	if !errors.Is(err, want) || calls != 1 {
		t.Fatalf("expected single failing call, got err=%v calls=%d", err, calls)
	}
}

func TestContentPath(t *testing.T) {
	tests := []struct{ folder, file, want string }{
		{"/Music/a.mp3", "a.mp3", "/Music/a.mp3"},
		{"/Music/", "a.mp3", "/Music/a.mp3"},
		{`C:\Music`, "a.mp3", `C:\Music\a.mp3`},
		{"", "a.mp3", "a.mp3"},
	}
	for _, tc := range tests {
		if got := contentPath(tc.folder, tc.file); got != tc.want {
			t.Errorf("contentPath(%q, %q) = %q, want %q", tc.folder, tc.file, got, tc.want)
		}
	}
}

func TestReadOnlyDSN(t *testing.T) {
	dsn := readOnlyDSN("/tmp/my lib/master.db")
	want := "file:///tmp/my%20lib/master.db?_pragma=busy_timeout%285000%29&_pragma=query_only%281%29&mode=ro"
	if dsn != want {
		t.Fatalf("dsn = %q, want %q", dsn, want)
	}
}
