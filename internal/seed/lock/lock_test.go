package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireReleaseRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.lock")

	l := New(path, time.Minute)
	require.NoError(t, l.Acquire(time.Second))

	_, err := os.Stat(path + ".owner")
	require.NoError(t, err, "owner sidecar should be written on acquire")

	require.NoError(t, l.Release())
	_, err = os.Stat(path + ".owner")
	require.True(t, os.IsNotExist(err), "owner sidecar should be removed on release")
}

func TestAcquireTimesOutWhenHeldByLiveProcess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.lock")

	holder := New(path, time.Minute)
	require.NoError(t, holder.Acquire(time.Second))
	defer holder.Release()

	contender := New(path, time.Minute)
	err := contender.Acquire(100 * time.Millisecond)
	require.Error(t, err)
}

func TestClearIfStaleReclaimsDeadOwner(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.lock")

	// Simulate a lock left by a dead process: a PID that can't plausibly be
	// alive, with an owner timestamp older than maxAge.
	require.NoError(t, os.WriteFile(path, []byte{}, 0o600))
	stale := time.Now().Add(-time.Hour).Unix()
	content := "999999\n" + strconv.FormatInt(stale, 10) + "\n"
	require.NoError(t, os.WriteFile(path+".owner", []byte(content), 0o600))

	l := New(path, time.Minute)
	require.NoError(t, l.Acquire(time.Second))
	require.NoError(t, l.Release())
}
