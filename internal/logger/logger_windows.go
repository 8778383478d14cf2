//go:build windows
// +build windows

package logger

import (
	"io"
	"os"

	"golang.org/x/sys/windows"
)

const SupportsColorEscapes = true

func GetTerminalInfo(file *os.File) (info TerminalInfo) {
	handle := windows.Handle(file.Fd())

	// Is this file descriptor a terminal?
	var mode uint32
	if err := windows.GetConsoleMode(handle, &mode); err == nil {
		info.IsTTY = true

		// Modern consoles render escape sequences once this mode is enabled
		if err := windows.SetConsoleMode(handle, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING); err == nil {
			info.UseColorEscapes = !hasNoColorEnvironmentVariable()
		}

		// Get the width of the window
		var csbi windows.ConsoleScreenBufferInfo
		if err := windows.GetConsoleScreenBufferInfo(handle, &csbi); err == nil {
			info.Width = int(csbi.Window.Right - csbi.Window.Left + 1)
			info.Height = int(csbi.Window.Bottom - csbi.Window.Top + 1)
		}
	}

	return
}

func writeStringWithColor(w io.Writer, text string) {
	io.WriteString(w, text)
}
