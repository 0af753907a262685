//go:build windows

package main

import (
	"io"
	"os"

	"golang.org/x/sys/windows"
)

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		var info windows.ConsoleScreenBufferInfo
		if err := windows.GetConsoleScreenBufferInfo(windows.Handle(f.Fd()), &info); err == nil {
			if n := int(info.Window.Right-info.Window.Left) + 1; n > 0 {
				return n
			}
		}
	}
	return columnsEnv()
}
