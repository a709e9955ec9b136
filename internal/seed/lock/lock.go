// Package lock implements the cross-process file lock seed writers take
// before touching a package/branch's parquet tables (§4.3 step 1): an
// advisory flock with a bounded acquire timeout, plus stale-lock detection
// by age threshold and dead-PID check so a crashed writer's lock can be
// forcibly released.
package lock

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	devacerrors "github.com/devac/devac/internal/errors"
)

// Lock guards one package/branch's seed directory.
type Lock struct {
	path  string
	flock *flock.Flock
	maxAge time.Duration
}

// DefaultMaxAge is the stale-lock age threshold: a lock file older than this
// whose recorded PID is no longer running is forcibly released.
const DefaultMaxAge = 10 * time.Minute

// New returns a Lock over lockPath (conventionally "<seed-dir>/seed.lock").
func New(lockPath string, maxAge time.Duration) *Lock {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Lock{path: lockPath, flock: flock.New(lockPath), maxAge: maxAge}
}

// Acquire blocks until the lock is held or timeout elapses, first clearing
// a stale lock left behind by a dead process (§4.3: "if the lock file
// exceeds a configurable age threshold and its PID is dead, it is forcibly
// released").
func (l *Lock) Acquire(timeout time.Duration) error {
	l.clearIfStale()

	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.flock.TryLock()
		if err != nil {
			return devacerrors.Wrapf(err, devacerrors.LockTimeout, "acquire lock %s", l.path)
		}
		if locked {
			return l.writeOwnerInfo()
		}
		if time.Now().After(deadline) {
			return devacerrors.Newf(devacerrors.LockTimeout, "timed out acquiring lock %s after %s", l.path, timeout)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// Release unlocks and removes the owner-info sidecar.
func (l *Lock) Release() error {
	_ = os.Remove(l.path + ".owner")
	return l.flock.Unlock()
}

// writeOwnerInfo records this process's PID and acquisition time next to
// the lock file so a future Acquire can detect staleness.
func (l *Lock) writeOwnerInfo() error {
	info := fmt.Sprintf("%d\n%d\n", os.Getpid(), time.Now().Unix())
	tmp := l.path + ".owner.tmp"
	if err := os.WriteFile(tmp, []byte(info), 0o600); err != nil {
		return nil // owner-info is best-effort; failure doesn't block the lock
	}
	return os.Rename(tmp, l.path+".owner")
}

// clearIfStale removes the lock file when its owner-info sidecar is older
// than maxAge and the recorded PID is no longer alive.
func (l *Lock) clearIfStale() {
	info, err := os.ReadFile(l.path + ".owner")
	if err != nil {
		return
	}
	lines := strings.Split(strings.TrimSpace(string(info)), "\n")
	if len(lines) != 2 {
		return
	}
	pid, err1 := strconv.Atoi(lines[0])
	acquiredUnix, err2 := strconv.ParseInt(lines[1], 10, 64)
	if err1 != nil || err2 != nil {
		return
	}

	age := time.Since(time.Unix(acquiredUnix, 0))
	if age < l.maxAge {
		return
	}
	if processAlive(pid) {
		return
	}

	_ = os.Remove(l.path)
	_ = os.Remove(l.path + ".owner")
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds; signal 0 probes liveness without
	// actually sending a signal.
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}
