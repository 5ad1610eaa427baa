package socket

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mstarongithub/wayspace/eventloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPicksFirstFreeName(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, "wayland-1", first.Name())
	assert.FileExists(t, filepath.Join(dir, "wayland-1.lock"))

	second, err := Open(dir)
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, "wayland-2", second.Name())

	require.NoError(t, first.Close())
	assert.NoFileExists(t, filepath.Join(dir, "wayland-1"))

	again, err := Open(dir)
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, "wayland-1", again.Name())
}

func TestStaleSocketIsReplaced(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wayland-1"), nil, 0o600))

	l, err := Open(dir)
	require.NoError(t, err)
	defer l.Close()
	assert.Equal(t, "wayland-1", l.Name())
}

func TestExport(t *testing.T) {
	t.Setenv("WAYLAND_DISPLAY", "")
	l, err := Open(t.TempDir())
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Export())
	assert.Equal(t, l.Name(), os.Getenv("WAYLAND_DISPLAY"))
}

func TestClientsReachSink(t *testing.T) {
	loop, err := eventloop.New()
	require.NoError(t, err)
	defer loop.Close()

	l, err := Open(t.TempDir())
	require.NoError(t, err)
	defer l.Close()

	conns := []*os.File{}
	require.NoError(t, l.Register(loop, func(conn *os.File) {
		conns = append(conns, conn)
	}))

	client, err := net.Dial("unix", l.Path())
	require.NoError(t, err)
	defer client.Close()

	deadline := time.Now().Add(5 * time.Second)
	for len(conns) == 0 && time.Now().Before(deadline) {
		require.NoError(t, loop.Dispatch(100*time.Millisecond))
	}
	require.Len(t, conns, 1)
	conns[0].Close()

	conn, err := l.Accept()
	assert.NoError(t, err)
	assert.Nil(t, conn, "nobody else is waiting")
}
