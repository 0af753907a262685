//go:build !windows

package main

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// terminalWidth reports the column count of w when it is a terminal,
// falling back to $COLUMNS, or 0 when unknown.
func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ); err == nil && ws != nil && ws.Col > 0 {
			return int(ws.Col)
		}
	}
	return columnsEnv()
}
