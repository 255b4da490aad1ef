package instance

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_FreshBase(t *testing.T) {
	base := t.TempDir()

	lock, err := Acquire(base)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(base, pidFile))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	require.NoError(t, lock.Release())
	assert.NoFileExists(t, lock.Path())
	require.NoError(t, lock.Release())
}

func TestAcquire_OwnPidIsNotAConflict(t *testing.T) {
	base := t.TempDir()
	_, err := Acquire(base)
	require.NoError(t, err)

	lock, err := Acquire(base)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestAcquire_LiveForeignPid(t *testing.T) {
	cmd := exec.Command(os.Args[0], "-test.run=^TestHelperProcess$")
	cmd.Env = append(os.Environ(), "FLASHDESK_TEST_SLEEP=1")
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		cmd.Process.Kill()
		cmd.Wait()
	})

	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, pidFile), []byte(strconv.Itoa(cmd.Process.Pid)), 0o644))

	_, err := Acquire(base)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestAcquire_StalePid(t *testing.T) {
	cmd := exec.Command(os.Args[0], "-test.run=^$")
	require.NoError(t, cmd.Run())
	dead := cmd.ProcessState.Pid()

	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, pidFile), []byte(strconv.Itoa(dead)), 0o644))

	lock, err := Acquire(base)
	require.NoError(t, err)
	defer lock.Release()

	data, err := os.ReadFile(lock.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))
}

func TestAcquire_GarbagePidFile(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, pidFile), []byte("not a pid"), 0o644))

	lock, err := Acquire(base)
	require.NoError(t, err)
	require.NoError(t, lock.Shutdown())
}

func TestAlive(t *testing.T) {
	assert.True(t, alive(os.Getpid()))
	assert.False(t, alive(0))
	assert.False(t, alive(-1))
}

// TestHelperProcess is the foreign process used above, not a real test.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("FLASHDESK_TEST_SLEEP") != "1" {
		return
	}
	time.Sleep(time.Minute)
	os.Exit(0)
}

func TestLock_ReleaseAfterShutdown(t *testing.T) {
	lock, err := Acquire(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, lock.Shutdown())
	assert.NoFileExists(t, lock.Path())
	assert.NoError(t, lock.Release())
}
