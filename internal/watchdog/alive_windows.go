//go:build windows

package watchdog

import "golang.org/x/sys/windows"

// exit code reported while a process is still running
const stillActive = 259

// ProcessAlive opens pid and checks that it has not reported an exit code.
func ProcessAlive(pid int) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		// access denied means the process is there but protected
		return err == windows.ERROR_ACCESS_DENIED
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == stillActive
}
