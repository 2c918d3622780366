//go:build unix

package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// createPipe makes a FIFO at path (or reuses an existing one) and opens it
// for writing. Open blocks until a reader such as Wireshark attaches.
func createPipe(path string) (*os.File, error) {
	if err := unix.Mkfifo(path, 0o600); err != nil {
		if !errors.Is(err, unix.EEXIST) {
			return nil, fmt.Errorf("mkfifo: %w", err)
		}
		info, statErr := os.Stat(path)
		if statErr != nil {
			return nil, statErr
		}
		if info.Mode()&os.ModeNamedPipe == 0 {
			return nil, fmt.Errorf("%s exists and is not a named pipe", path)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open pipe: %w", err)
	}
	return f, nil
}

func removePipe(path string) {
	_ = os.Remove(path)
}
