package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCopyAtomic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "dst.mp3")

	content := []byte("hello world")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	var progress bytes.Buffer
	n, err := CopyAtomic(src, dst, CopyOptions{Progress: &progress})
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(content)) || progress.Len() != len(content) {
		t.Fatalf("unexpected byte counts: copied %d, progress %d", n, progress.Len())
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
	if _, err := os.Stat(dst + PartSuffix); !os.IsNotExist(err) {
		t.Fatalf("expected part file to be gone, got %v", err)
	}
}

func TestCopyAtomicVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	content := bytes.Repeat([]byte("verified copy content "), 4096)
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := CopyAtomic(src, dst, CopyOptions{Verify: true}); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("content mismatch")
	}
}

func TestCopyAtomicPreservesTimes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.wav")
	dst := filepath.Join(dir, "dst.wav")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2020, 5, 17, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(src, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	if _, err := CopyAtomic(src, dst, CopyOptions{PreserveTimes: true}); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Fatalf("mtime = %v, want %v", info.ModTime(), mtime)
	}
}

func TestCopyAtomicMissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst.mp3")

	if _, err := CopyAtomic(filepath.Join(dir, "missing.mp3"), dst, CopyOptions{}); err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("expected no destination, got %v", err)
	}
	if _, err := os.Stat(dst + PartSuffix); !os.IsNotExist(err) {
		t.Fatalf("expected no part file, got %v", err)
	}
}

func TestCopyAtomicRejectsDirectories(t *testing.T) {
	dir := t.TempDir()
	if _, err := CopyAtomic(dir, filepath.Join(dir, "dst"), CopyOptions{}); err == nil {
		t.Fatal("expected error for directory source")
	}
}

func TestCopyAtomicUnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CopyAtomic(src, filepath.Join(dir, "missing-dir", "dst.mp3"), CopyOptions{}); err == nil {
		t.Fatal("expected error for missing destination directory")
	}
}

func TestRemovePart(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst.mp3")
	if err := RemovePart(dst); err != nil {
		t.Fatalf("RemovePart without part file: %v", err)
	}
	if err := os.WriteFile(dst+PartSuffix, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RemovePart(dst); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dst + PartSuffix); !os.IsNotExist(err) {
		t.Fatalf("expected part file removed, got %v", err)
	}
}
