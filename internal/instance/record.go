package instance

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadOwnerPID reads the PID recorded in the lock file. A missing, empty, or
// garbled record yields (0, false): there is no owner to reach.
func ReadOwnerPID(lockPath string) (int, bool) {
	data, err := os.ReadFile(lockPath) //nolint:gosec // G304 - path from the state directory
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// IsStale reports whether a lock record exists but its recorded owner process
// is gone. With flock the lock itself can never outlive its owner, so a
// stale record blocks nothing; a new owner acquires and overwrites it. The
// check exists for diagnostics and for platforms without flock.
func IsStale(lockPath string) bool {
	pid, ok := ReadOwnerPID(lockPath)
	if !ok {
		return false
	}
	return !IsProcessRunning(pid)
}

// WritePortFile atomically records the command channel port so later
// invocations can find the owner. Write to a temp file then rename.
func WritePortFile(path string, port int) error {
	tempPath := path + ".tmp"
	content := fmt.Sprintf("%d\n", port)
	if err := os.WriteFile(tempPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("write port file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("finalize port file: %w", err)
	}
	return nil
}

// ReadPortFile reads the owner's announced port. Any unreadable, empty,
// non-numeric, or out-of-range content means no owner is reachable.
func ReadPortFile(path string) (int, bool) {
	data, err := os.ReadFile(path) //nolint:gosec // G304 - path from the state directory
	if err != nil {
		return 0, false
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	if port < 1 || port > 65535 {
		return 0, false
	}
	return port, true
}

// RemovePortFile removes the port file. A missing file is not an error.
func RemovePortFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove port file: %w", err)
	}
	return nil
}
