// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package multiplexer

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrClosed = errors.New("multiplexer has been closed")

// A many to one multiplexer
// Senders from any goroutine are fine, there is exactly one receiver.
// The channel itself is never closed, so a sender racing Close can't panic.
// Close instead releases every sender blocked on a full channel
type ManyToOne[T any] struct {
	lock     sync.RWMutex
	outbound chan T
	done     chan struct{}
	closed   bool
	// Called after every successful send, e.g. to wake the receiver up
	notify func()
}

// NewManyToOne creates a new ManyToOne multiplexer
// The given channel will be where all messages will be sent to
func NewManyToOne[T any](receiver chan T) *ManyToOne[T] {
	return &ManyToOne[T]{outbound: receiver, done: make(chan struct{})}
}

// OnSend registers a function called after every message that got through
func (m *ManyToOne[T]) OnSend(notify func()) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.notify = notify
}

// Send a message to this many to one plexer
// Blocks while the channel is full, until either the receiver made room or the plexer got closed.
// Messages that got queued but raced a Close are reported as ErrClosed, nobody will read them
func (m *ManyToOne[T]) Send(msg T) error {
	if m.Closed() {
		return ErrClosed
	}
	select {
	case m.outbound <- msg:
	case <-m.done:
		return ErrClosed
	}

	// notify must not run once Close returned, the receiver may have released what it uses
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.closed {
		return ErrClosed
	}
	if m.notify != nil {
		m.notify()
	}
	return nil
}

// TryReceive hands out the next message without blocking
func (m *ManyToOne[T]) TryReceive() (T, bool) {
	select {
	case msg := <-m.outbound:
		return msg, true
	default:
		var zero T
		return zero, false
	}
}

// Marks the plexer as closed and wakes up blocked senders. Closing twice is fine
func (m *ManyToOne[T]) Close() {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.done)
}

func (m *ManyToOne[T]) Closed() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.closed
}
