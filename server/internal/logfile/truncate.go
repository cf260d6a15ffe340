// Package logfile keeps the server's log file from growing without bound
// across restarts.
package logfile

import (
	"fmt"
	"io"
	"os"
)

const (
	DefaultMaxSize  = 5 << 20   // 5 MiB
	DefaultKeepSize = 256 << 10 // 256 KiB
)

// Truncate shrinks the file at path to its last keepSize bytes once it
// exceeds maxSize, prefixed with a one-line notice. A missing file is not an
// error. It reports whether the file was rewritten.
func Truncate(path string, maxSize, keepSize int64) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() <= maxSize {
		return false, nil
	}

	tail, err := readTail(path, info.Size(), keepSize)
	if err != nil {
		return false, err
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return false, fmt.Errorf("rewrite log file: %w", err)
	}
	defer out.Close()

	if _, err := fmt.Fprintf(out, "--- truncated from %d bytes ---\n", info.Size()); err != nil {
		return false, fmt.Errorf("write truncation notice: %w", err)
	}
	if _, err := out.Write(tail); err != nil {
		return false, fmt.Errorf("write log tail: %w", err)
	}
	return true, nil
}

func readTail(path string, size, keepSize int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(max(size-keepSize, 0), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek log file: %w", err)
	}
	tail, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read log file tail: %w", err)
	}
	return tail, nil
}
