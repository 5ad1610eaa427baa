package eventloop

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newPipe(t *testing.T) (int, int) {
	t.Helper()
	var p [2]int
	require.NoError(t, unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC))
	t.Cleanup(func() {
		unix.Close(p[0])
		unix.Close(p[1])
	})
	return p[0], p[1]
}

func TestFdSourceDispatch(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	r, w := newPipe(t)
	calls := 0
	_, err = loop.AddFd(r, Readable, func(fd int, ready Interest) error {
		calls++
		assert.NotZero(t, ready&Readable)
		buf := make([]byte, 8)
		_, err := unix.Read(fd, buf)
		return err
	})
	require.NoError(t, err)

	_, err = loop.AddFd(r, Readable, nil)
	assert.Error(t, err, "one source per fd")

	require.NoError(t, loop.Dispatch(0))
	assert.Equal(t, 0, calls)

	_, err = unix.Write(w, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, loop.Dispatch(time.Second))
	assert.Equal(t, 1, calls)
}

func TestFailingSourceIsRemoved(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	r, w := newPipe(t)
	boom := errors.New("boom")
	calls := 0
	_, err = loop.AddFd(r, Readable, func(int, Interest) error {
		calls++
		return boom
	})
	require.NoError(t, err)

	_, err = unix.Write(w, []byte("x"))
	require.NoError(t, err)
	assert.ErrorIs(t, loop.Dispatch(time.Second), boom)
	require.NoError(t, loop.Dispatch(0))
	assert.Equal(t, 1, calls)
}

func TestReaddedFdWaitsForNextPoll(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	r, w := newPipe(t)
	oldCalls, newCalls := 0, 0
	var old *Source
	old, err = loop.AddFd(r, Readable, func(int, Interest) error {
		oldCalls++
		old.Remove()
		_, err := loop.AddFd(r, Readable, func(fd int, _ Interest) error {
			newCalls++
			buf := make([]byte, 8)
			_, err := unix.Read(fd, buf)
			return err
		})
		return err
	})
	require.NoError(t, err)

	_, err = unix.Write(w, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, loop.Dispatch(time.Second))
	assert.Equal(t, 1, oldCalls)
	assert.Equal(t, 0, newCalls, "readiness of the removed source is not handed on")

	require.NoError(t, loop.Dispatch(time.Second))
	assert.Equal(t, 1, oldCalls)
	assert.Equal(t, 1, newCalls)

	old.Remove()
	assert.Len(t, loop.sources, 1, "removing twice leaves the new source alone")
}

func TestTimers(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	now := time.Unix(100, 0)
	loop.now = func() time.Time { return now }

	fired := 0
	loop.AddTimer(10*time.Millisecond, func(time.Time) time.Duration {
		fired++
		if fired < 2 {
			return 10 * time.Millisecond
		}
		return 0
	})
	stopped := loop.AddTimer(10*time.Millisecond, func(time.Time) time.Duration {
		t.Fatal("stopped timer fired")
		return 0
	})
	stopped.Stop()

	assert.Equal(t, 10*time.Millisecond, loop.nextTimeout(DefaultTimeout))
	require.NoError(t, loop.Dispatch(0))
	assert.Equal(t, 0, fired)

	now = now.Add(10 * time.Millisecond)
	require.NoError(t, loop.Dispatch(0))
	assert.Equal(t, 1, fired)

	now = now.Add(10 * time.Millisecond)
	require.NoError(t, loop.Dispatch(0))
	now = now.Add(10 * time.Millisecond)
	require.NoError(t, loop.Dispatch(0))
	assert.Equal(t, 2, fired)
	assert.Empty(t, loop.timers)
}

func TestPostWakesDispatch(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	defer loop.Close()

	ran := make(chan struct{})
	go func() {
		_ = loop.Post(func() { close(ran) })
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		require.NoError(t, loop.Dispatch(time.Second))
		select {
		case <-ran:
			return
		default:
		}
	}
	t.Fatal("posted function never ran")
}

func TestClosedLoop(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)
	loop.Close()

	assert.ErrorIs(t, loop.Dispatch(0), ErrClosed)
	assert.ErrorIs(t, loop.Post(func() {}), ErrClosed)
	_, err = loop.AddFd(0, Readable, nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseReleasesBlockedPost(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)

	var queued atomic.Int32
	result := make(chan error, 1)
	go func() {
		for i := 0; i <= postQueueSize; i++ {
			if err := loop.Post(func() {}); err != nil {
				result <- err
				return
			}
			queued.Add(1)
		}
		result <- nil
	}()
	require.Eventually(t, func() bool { return queued.Load() == postQueueSize }, 5*time.Second, time.Millisecond)

	closed := make(chan struct{})
	go func() {
		loop.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked behind a Post waiting on a full queue")
	}
	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Post stayed blocked after Close")
	}
}
