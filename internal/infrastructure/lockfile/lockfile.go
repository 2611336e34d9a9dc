package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// Name of the lock file inside a backup directory. Starts with a dot so it
// can never collide with the artifact naming convention.
const Name = ".arca.lock"

// Lock guards one backup directory against concurrent runs. Retention
// deletes interleaving with an in-flight upload from another process is
// the race this prevents.
type Lock struct {
	path  string
	RunID string
}

type lockInfo struct {
	RunID     string    `json:"run_id"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
}

// Acquire takes the lock for dir. A lock held by a live process fails the
// run immediately; a lock whose process is gone is taken over.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, Name)
	runID := uuid.NewString()

	err := create(path, runID)
	if errors.Is(err, fs.ErrExist) {
		prev, readErr := read(path)
		if readErr != nil {
			return nil, fmt.Errorf("unreadable lock file %s (remove it manually if no backup is running): %w", path, readErr)
		}
		if pidAlive(prev.PID) {
			return nil, fmt.Errorf("backup directory is locked by run %s (pid %d, started %s)",
				prev.RunID, prev.PID, prev.StartedAt.Format(time.RFC3339))
		}

		// stale lock from a dead process: take it over
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to remove stale lock: %w", err)
		}
		err = create(path, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	return &Lock{path: path, RunID: runID}, nil
}

func (l *Lock) Release() {
	_ = os.Remove(l.path)
}

func create(path, runID string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(lockInfo{
		RunID:     runID,
		PID:       os.Getpid(),
		StartedAt: time.Now().UTC(),
	})
}

func read(path string) (lockInfo, error) {
	var info lockInfo
	data, err := os.ReadFile(path)
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, err
	}
	if info.PID == 0 {
		return info, errors.New("lock file carries no pid")
	}
	return info, nil
}

func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
