//go:build windows

package main

import (
	"os"

	"golang.org/x/sys/windows"
)

// enableTerminalStatus turns on VT processing so the carriage-return status
// line and styled summary render in a Windows console.
func enableTerminalStatus() {
	for _, f := range []*os.File{os.Stdout, os.Stderr} {
		handle := windows.Handle(f.Fd())
		var mode uint32
		if err := windows.GetConsoleMode(handle, &mode); err != nil {
			continue
		}
		_ = windows.SetConsoleMode(handle, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
	}
}
