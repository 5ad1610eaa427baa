package multiplexer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManyToOneCollectsFromAllSenders(t *testing.T) {
	plexer := NewManyToOne(make(chan int, 64))
	notified := 0
	var lock sync.Mutex
	plexer.OnSend(func() {
		lock.Lock()
		notified++
		lock.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 8; j++ {
				require.NoError(t, plexer.Send(base*100+j))
			}
		}(i)
	}
	wg.Wait()

	received := 0
	for {
		if _, ok := plexer.TryReceive(); !ok {
			break
		}
		received++
	}
	assert.Equal(t, 32, received)
	assert.Equal(t, 32, notified)
}

func TestManyToOneClosed(t *testing.T) {
	plexer := NewManyToOne(make(chan string, 1))
	plexer.Close()
	plexer.Close()

	assert.True(t, plexer.Closed())
	assert.ErrorIs(t, plexer.Send("late"), ErrClosed)
	_, ok := plexer.TryReceive()
	assert.False(t, ok)
}

func TestManyToOneCloseReleasesBlockedSender(t *testing.T) {
	plexer := NewManyToOne(make(chan int, 1))
	require.NoError(t, plexer.Send(1))

	blocked := make(chan error, 1)
	go func() {
		blocked <- plexer.Send(2)
	}()
	select {
	case err := <-blocked:
		t.Fatalf("send into a full channel returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	closed := make(chan struct{})
	go func() {
		plexer.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close waited for a sender blocked on a full channel")
	}
	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked sender was not released by Close")
	}
}
