//go:build !windows

package pty

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, p Pty) string {
	t.Helper()
	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := p.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			// Linux ptys report EIO instead of EOF when the child side
			// is gone; either way the stream is over.
			if err != io.EOF {
				t.Logf("read ended: %v", err)
			}
			return sb.String()
		}
	}
}

func TestSpawnCapturesOutputAndExitCode(t *testing.T) {
	p, err := Spawn(Options{
		Command: []string{"sh", "-c", "printf hello; exit 7"},
		Rows:    24,
		Cols:    80,
	})
	require.NoError(t, err)
	defer p.Close()

	out := drain(t, p)
	assert.Contains(t, out, "hello")

	require.Eventually(t, func() bool {
		_, exited := p.ExitCode()
		return exited
	}, 5*time.Second, 10*time.Millisecond)

	code, exited := p.ExitCode()
	assert.True(t, exited)
	assert.Equal(t, 7, code)
}

func TestSpawnFailureIsSynchronous(t *testing.T) {
	_, err := Spawn(Options{
		Command: []string{"/nonexistent/definitely-not-a-binary"},
		Rows:    24,
		Cols:    80,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSpawnFailed)
}

func TestResizeUpdatesSize(t *testing.T) {
	p, err := Spawn(Options{
		Command: []string{"sleep", "5"},
		Rows:    24,
		Cols:    80,
	})
	require.NoError(t, err)
	defer p.Close()
	defer p.Kill()

	require.NoError(t, p.Resize(40, 120))
	rows, cols := p.Size()
	assert.Equal(t, 40, rows)
	assert.Equal(t, 120, cols)

	err = p.Resize(0, -1)
	assert.ErrorIs(t, err, ErrResizeFailed)
	rows, cols = p.Size()
	assert.Equal(t, 40, rows)
	assert.Equal(t, 120, cols)
}

func TestKillTerminatesChild(t *testing.T) {
	p, err := Spawn(Options{
		Command: []string{"sleep", "60"},
		Rows:    24,
		Cols:    80,
	})
	require.NoError(t, err)
	defer p.Close()

	start := time.Now()
	require.NoError(t, p.Kill())
	assert.Less(t, time.Since(start), killGrace+time.Second)

	_, exited := p.ExitCode()
	assert.True(t, exited)
	assert.NoError(t, p.Kill())
}

func TestWriteAfterCloseFails(t *testing.T) {
	p, err := Spawn(Options{
		Command: []string{"cat"},
		Rows:    24,
		Cols:    80,
	})
	require.NoError(t, err)

	_, err = p.Write([]byte("roundtrip\n"))
	require.NoError(t, err)

	require.NoError(t, p.Kill())
	require.NoError(t, p.Close())

	_, err = p.Write([]byte("late"))
	assert.ErrorIs(t, err, ErrClosed)
}
