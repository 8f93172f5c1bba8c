package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// PartSuffix marks a destination that is still being written.
const PartSuffix = ".part"

// CopyOptions controls CopyAtomic.
type CopyOptions struct {
	// Verify re-reads the written file and compares its SHA-256 with the
	// source before it is renamed into place.
	Verify bool
	// PreserveTimes copies the source modification time.
	PreserveTimes bool
	// Progress, when set, receives every byte written.
	Progress io.Writer
}

// CopyAtomic copies src to dst through dst+PartSuffix and renames it into
// place once complete, so dst either does not exist or is a full copy. It
// returns the number of bytes copied.
func CopyAtomic(src, dst string, opts CopyOptions) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if !srcInfo.Mode().IsRegular() {
		return 0, fmt.Errorf("source %s is not a regular file", src)
	}

	part := dst + PartSuffix
	written, sum, err := copyHashed(src, part, opts.Progress)
	if err != nil {
		_ = os.Remove(part)
		return written, err
	}

	if written != srcInfo.Size() {
		_ = os.Remove(part)
		return written, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}

	if opts.Verify {
		got, err := hashFile(part)
		if err != nil {
			_ = os.Remove(part)
			return written, fmt.Errorf("verify copy: %w", err)
		}
		if !bytes.Equal(sum, got) {
			_ = os.Remove(part)
			return written, fmt.Errorf("copy hash mismatch: file corrupted during copy")
		}
	}

	if opts.PreserveTimes {
		mtime := srcInfo.ModTime()
		if err := os.Chtimes(part, mtime, mtime); err != nil {
			_ = os.Remove(part)
			return written, fmt.Errorf("preserve times: %w", err)
		}
	}

	if err := os.Rename(part, dst); err != nil {
		_ = os.Remove(part)
		return written, fmt.Errorf("rename into place: %w", err)
	}
	return written, nil
}

// copyHashed streams src to dst and returns the SHA-256 of what was read.
func copyHashed(src, dst string, progress io.Writer) (int64, []byte, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, nil, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		_ = out.Close()
	}()

	hasher := sha256.New()
	var w io.Writer = out
	if progress != nil {
		w = io.MultiWriter(out, progress)
	}
	written, err := io.Copy(w, io.TeeReader(in, hasher))
	if err != nil {
		return written, nil, err
	}
	if err := out.Sync(); err != nil {
		return written, nil, fmt.Errorf("sync: %w", err)
	}
	if err := out.Close(); err != nil {
		return written, nil, err
	}
	return written, hasher.Sum(nil), nil
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return nil, err
	}
	return hasher.Sum(nil), nil
}

// RemovePart deletes a leftover partial copy of dst, if any.
func RemovePart(dst string) error {
	err := os.Remove(dst + PartSuffix)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
