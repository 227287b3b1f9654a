//go:build windows

package grid

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

func applyHiddenWindow(cmd *exec.Cmd) {
	// Keeps a console window from flashing when ffmpeg starts.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}
