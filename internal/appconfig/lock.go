package appconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// WritePID writes the current process id to the lock file under dir.
func WritePID(dir string) error {
	path := PIDPath(dir)
	data := []byte(strconv.Itoa(os.Getpid()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// ReadPID reads the supervisor pid recorded under dir. It returns
// (0, false) if the lock file is absent or unparsable — a stale or
// missing lock file is treated as "no supervisor running", never as
// an error.
func ReadPID(dir string) (int, bool) {
	data, err := os.ReadFile(PIDPath(dir))
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// RemovePID deletes the lock file under dir. Removing an
// already-absent file is not an error.
func RemovePID(dir string) error {
	err := os.Remove(PIDPath(dir))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}

// probeAlive sends the null signal to pid: a no-op liveness probe
// that succeeds only if the process exists and is signalable by the
// calling user.
func probeAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// IsRunning reports whether a live supervisor is recorded under dir.
// A lock file naming a process that is no longer alive is treated as
// stale and IsRunning returns false.
func IsRunning(dir string) bool {
	pid, ok := ReadPID(dir)
	if !ok {
		return false
	}
	return probeAlive(pid)
}

// Signal delivers sig to the supervisor process recorded under dir.
// It returns (false, nil) if no lock file is present. If the
// recorded pid is not alive, the stale lock file is removed and
// Signal returns (false, nil).
func Signal(dir string, sig os.Signal) (bool, error) {
	pid, ok := ReadPID(dir)
	if !ok {
		return false, nil
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		_ = RemovePID(dir)
		return false, nil
	}
	if err := process.Signal(sig); err != nil {
		_ = RemovePID(dir)
		return false, nil
	}
	return true, nil
}
